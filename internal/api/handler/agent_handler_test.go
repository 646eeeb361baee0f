package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/pkg/apperrors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAgentHandlerCreateAgent(t *testing.T) {
	t.Run("creates agent", func(t *testing.T) {
		mockService := new(MockAgentService)
		handler := NewAgentHandler(mockService, logger)

		params := agent.CreateParams{Name: "Ravi", Phone: "9000000001", Status: agent.StatusActive}
		mockService.On("CreateAgent", mock.Anything, params).
			Return(&agent.Agent{ID: "a-1", AgentID: "AG4821", Name: "Ravi", Phone: "9000000001", Status: agent.StatusActive}, nil)

		req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewBufferString(`{"name":"Ravi","phone":"9000000001","status":"active"}`))
		rec := httptest.NewRecorder()
		handler.CreateAgent(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.AgentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "AG4821", resp.AgentID)
		mockService.AssertExpectations(t)
	})

	t.Run("duplicate code is 409", func(t *testing.T) {
		mockService := new(MockAgentService)
		handler := NewAgentHandler(mockService, logger)
		mockService.On("CreateAgent", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: agent AG1 exists", apperrors.ErrAlreadyExists))

		req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewBufferString(`{"name":"Ravi","agentId":"AG1"}`))
		rec := httptest.NewRecorder()
		handler.CreateAgent(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		mockService := new(MockAgentService)
		handler := NewAgentHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewBufferString(`{"name":"Ravi","status":"retired"}`))
		rec := httptest.NewRecorder()
		handler.CreateAgent(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateAgent", mock.Anything, mock.Anything)
	})
}

func TestAgentHandlerListAgents(t *testing.T) {
	mockService := new(MockAgentService)
	handler := NewAgentHandler(mockService, logger)
	mockService.On("ListAgents", mock.Anything).Return([]*agent.Agent{{ID: "a-1", AgentID: "AG1"}, {ID: "a-2", AgentID: "AG2"}}, nil)

	rec := httptest.NewRecorder()
	handler.ListAgents(rec, httptest.NewRequest(http.MethodGet, "/agents", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.AgentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 2)
}
