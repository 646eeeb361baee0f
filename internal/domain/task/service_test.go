package task

import (
	"context"
	"log/slog"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateTask(ctx context.Context, t *Task) (*Task, error) {
	ret := _m.Called(ctx, t)

	var r0 *Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListTasks(ctx context.Context, f ListFilter) ([]*Task, error) {
	ret := _m.Called(ctx, f)

	var r0 []*Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListAgentTasks(ctx context.Context, agentID string, status Status) ([]*Task, error) {
	ret := _m.Called(ctx, agentID, status)

	var r0 []*Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateTaskStatus(ctx context.Context, taskID string, status Status, notes string) (*Task, error) {
	ret := _m.Called(ctx, taskID, status, notes)

	var r0 *Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) DeleteTask(ctx context.Context, taskID string) error {
	return _m.Called(ctx, taskID).Error(0)
}

type MockAgentService struct {
	mock.Mock
	agent.AgentService
}

func (_m *MockAgentService) GetAgent(ctx context.Context, agentID string) (*agent.Agent, error) {
	ret := _m.Called(ctx, agentID)

	var r0 *agent.Agent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*agent.Agent)
	}
	return r0, ret.Error(1)
}

func (_m *MockAgentService) ListAgentCodes(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

type MockLoanService struct {
	mock.Mock
	loan.LoanService
}

func (_m *MockLoanService) ListAgentLoans(ctx context.Context, agentID string, statuses ...loan.Status) ([]*loan.Loan, error) {
	ret := _m.Called(ctx, agentID, statuses)

	var r0 []*loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*loan.Loan)
	}
	return r0, ret.Error(1)
}

func newService() (TaskService, *MockRepository, *MockAgentService, *MockLoanService) {
	repo, agents, loans := new(MockRepository), new(MockAgentService), new(MockLoanService)
	return NewTaskService(repo, agents, loans, "₹", logger), repo, agents, loans
}

func TestCreateTask(t *testing.T) {
	service, repo, agents, _ := newService()
	ctx := context.Background()
	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	agents.On("GetAgent", ctx, "AG1").Return(&agent.Agent{AgentID: "AG1"}, nil)
	repo.On("CreateTask", ctx, mock.MatchedBy(func(tk *Task) bool {
		return tk.Priority == PriorityMedium && tk.Status == StatusPending && tk.AssignedBy == "manager" && tk.DueDate.Equal(due)
	})).Return(&Task{ID: "t-1"}, nil)

	got, err := service.CreateTask(ctx, CreateParams{Title: "Visit", AgentID: "AG1", DueDate: &due})

	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	repo.AssertExpectations(t)
}

func TestCreateTask_UnknownAgentListsCodes(t *testing.T) {
	service, repo, agents, _ := newService()
	ctx := context.Background()
	due := time.Now()

	agents.On("GetAgent", ctx, "AG9").Return(nil, apperrors.ErrNotFound)
	agents.On("ListAgentCodes", ctx).Return([]string{"AG1", "AG2"}, nil)

	_, err := service.CreateTask(ctx, CreateParams{Title: "Visit", AgentID: "AG9", DueDate: &due})

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Agent not found. Available agents: AG1, AG2", vErr.Message)
	repo.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestCreateTask_MissingFields(t *testing.T) {
	service, _, _, _ := newService()

	_, err := service.CreateTask(context.Background(), CreateParams{Title: "Visit", AgentID: "AG1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateTaskStatus(t *testing.T) {
	service, repo, _, _ := newService()
	ctx := context.Background()
	now := time.Now()

	repo.On("UpdateTaskStatus", ctx, "t-1", StatusCompleted, "done").Return(&Task{ID: "t-1", Status: StatusCompleted, CompletedAt: &now}, nil)
	repo.On("UpdateTaskStatus", ctx, "t-9", StatusInProgress, "").Return(nil, apperrors.ErrNotFound)

	got, err := service.UpdateTaskStatus(ctx, "t-1", StatusCompleted, "done")
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)

	_, err = service.UpdateTaskStatus(ctx, "t-9", StatusInProgress, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = service.UpdateTaskStatus(ctx, "t-1", "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteTask(t *testing.T) {
	service, repo, _, _ := newService()
	ctx := context.Background()

	repo.On("DeleteTask", ctx, "t-9").Return(apperrors.ErrNotFound)

	assert.ErrorIs(t, service.DeleteTask(ctx, "t-9"), apperrors.ErrNotFound)
}

func repaymentLoans() []*loan.Loan {
	return []*loan.Loan{
		{
			ID:           "l-due",
			BorrowerID:   "b-1",
			Amount:       decimal.NewFromInt(25000),
			TenureMonths: 3,
			Frequency:    loan.FrequencyMonthly,
			Status:       loan.StatusActive,
			CreatedAt:    time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC),
			Borrower: &loan.BorrowerContact{
				FirstName: "Asha", LastName: "Rao",
				Address: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001",
			},
		},
		{
			ID:           "l-later",
			Amount:       decimal.NewFromInt(1000),
			TenureMonths: 6,
			Frequency:    loan.FrequencyMonthly,
			CreatedAt:    time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:           "l-weekly",
			Amount:       decimal.NewFromInt(1000),
			TenureMonths: 6,
			Frequency:    loan.FrequencyWeekly,
			CreatedAt:    time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestRepaymentTasksToday(t *testing.T) {
	service, _, _, loans := newService()
	ctx := context.Background()
	today := time.Date(2024, time.April, 30, 14, 0, 0, 0, time.UTC)

	loans.On("ListAgentLoans", ctx, "AG1", []loan.Status{loan.StatusActive, loan.StatusApproved}).Return(repaymentLoans(), nil)

	tasks, err := service.RepaymentTasksToday(ctx, "AG1", today, false)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	got := tasks[0]
	assert.Equal(t, "l-due-2024-04-30", got.ID)
	assert.Equal(t, "Collect EMI from Asha Rao", got.Title)
	assert.Equal(t, "Loan: ₹25,000 • EMI 1/3", got.Description)
	assert.Equal(t, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), got.DueDate)
	assert.Equal(t, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "12 MG Road, Pune, MH, 411001", got.LocationAddress)
	assert.Equal(t, "https://maps.google.com?q=12%20MG%20Road%2C%20Pune%2C%20MH%2C%20411001", got.LocationURL)
}

func TestRepaymentTasksToday_Force(t *testing.T) {
	service, _, _, loans := newService()
	ctx := context.Background()

	loans.On("ListAgentLoans", ctx, "AG1", []loan.Status{loan.StatusActive, loan.StatusApproved}).Return(repaymentLoans(), nil)

	tasks, err := service.RepaymentTasksToday(ctx, "AG1", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), true)

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Collect EMI from Borrower", tasks[1].Title)
	assert.Empty(t, tasks[1].LocationURL)
}
