package agent

import (
	"context"
	"log/slog"
	"microfinance-backend/internal/pkg/apperrors"
	"os"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateAgent(ctx context.Context, a *Agent) (*Agent, error) {
	ret := _m.Called(ctx, a)

	var r0 *Agent
	if rf, ok := ret.Get(0).(func(context.Context, *Agent) *Agent); ok {
		r0 = rf(ctx, a)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Agent)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListAgents(ctx context.Context) ([]*Agent, error) {
	ret := _m.Called(ctx)

	var r0 []*Agent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Agent)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetAgentByCode(ctx context.Context, agentID string) (*Agent, error) {
	ret := _m.Called(ctx, agentID)

	var r0 *Agent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Agent)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) AgentCodeExists(ctx context.Context, agentID string) (bool, error) {
	ret := _m.Called(ctx, agentID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockRepository) FindByCredentials(ctx context.Context, phone, agentID string) (*Agent, error) {
	ret := _m.Called(ctx, phone, agentID)

	var r0 *Agent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Agent)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListAgentCodes(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

func sequence(codes ...string) CodeGenerator {
	i := 0
	return func() string {
		c := codes[i%len(codes)]
		i++
		return c
	}
}

func echoAgent(_ context.Context, a *Agent) *Agent {
	a.ID = "3f1c2f0e-4a4b-4c1e-9d55-0d6c6a2b7e10"
	return a
}

func TestRandomCode(t *testing.T) {
	re := regexp.MustCompile(`^AG[1-9][0-9]{5}$`)
	for range 50 {
		assert.Regexp(t, re, RandomCode())
	}
}

func TestCreateAgent_GeneratesCode(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewAgentService(mockRepo, sequence("AG111111", "AG222222"), logger)
	ctx := context.Background()

	mockRepo.On("AgentCodeExists", ctx, "AG111111").Return(true, nil)
	mockRepo.On("AgentCodeExists", ctx, "AG222222").Return(false, nil)
	mockRepo.On("CreateAgent", ctx, mock.MatchedBy(func(a *Agent) bool {
		return a.AgentID == "AG222222" && a.Status == StatusActive && a.Name == "Ravi"
	})).Return(echoAgent, nil)

	got, err := service.CreateAgent(ctx, CreateParams{Name: " Ravi "})

	require.NoError(t, err)
	assert.Equal(t, "AG222222", got.AgentID)
	mockRepo.AssertExpectations(t)
}

func TestCreateAgent_GivesUpAfterFiveAttempts(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewAgentService(mockRepo, sequence("AG111111"), logger)
	ctx := context.Background()

	mockRepo.On("AgentCodeExists", ctx, "AG111111").Return(true, nil)

	_, err := service.CreateAgent(ctx, CreateParams{Name: "Ravi"})

	assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	mockRepo.AssertNumberOfCalls(t, "AgentCodeExists", 5)
	mockRepo.AssertNotCalled(t, "CreateAgent", mock.Anything, mock.Anything)
}

func TestCreateAgent_Validation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewAgentService(mockRepo, nil, logger)

	_, err := service.CreateAgent(context.Background(), CreateParams{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.CreateAgent(context.Background(), CreateParams{Name: "Ravi", Status: "retired"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateAgent_DuplicateCode(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewAgentService(mockRepo, nil, logger)
	ctx := context.Background()

	mockRepo.On("CreateAgent", ctx, mock.Anything).Return(nil, apperrors.ErrAlreadyExists)

	_, err := service.CreateAgent(ctx, CreateParams{Name: "Ravi", AgentID: "AG123456"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	mockRepo.AssertNotCalled(t, "AgentCodeExists", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewAgentService(mockRepo, nil, logger)
	ctx := context.Background()
	a := &Agent{AgentID: "AG123456", Phone: "9876543210"}

	mockRepo.On("FindByCredentials", ctx, "9876543210", "AG123456").Return(a, nil)
	mockRepo.On("FindByCredentials", ctx, "9876543210", "AG000000").Return(nil, pgx.ErrNoRows)

	got, err := service.Login(ctx, " 9876543210 ", "AG123456")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = service.Login(ctx, "9876543210", "AG000000")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = service.Login(ctx, "", "AG123456")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetAgent_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewAgentService(mockRepo, nil, logger)
	ctx := context.Background()

	mockRepo.On("GetAgentByCode", ctx, "AG9").Return(nil, apperrors.ErrNotFound)

	_, err := service.GetAgent(ctx, "AG9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
