package handler

import (
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/agent"
	"net/http"
)

type AgentHandler struct {
	service agent.AgentService
	logger  *slog.Logger
}

func NewAgentHandler(s agent.AgentService, l *slog.Logger) *AgentHandler {
	if s == nil {
		panic("agent service cannot be nil")
	}
	return &AgentHandler{
		service: s,
		logger:  l.With("component", "AgentHandler"),
	}
}

// CreateAgent handles POST /agents
// @Summary Create a field agent
// @Description A missing agentId is generated as AG followed by six digits.
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body dto.CreateAgentRequest true "Agent"
// @Success 201 {object} dto.AgentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/manager/agents [post]
// @Security BearerAuth
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateAgent(r.Context(), req.ToParams())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to create agent", err)
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Agent created", slog.String("agentID", created.AgentID))
	respondJSON(w, http.StatusCreated, dto.NewAgentResponse(created))
}

// ListAgents handles GET /agents
// @Summary List agents
// @Tags Agents
// @Produce json
// @Success 200 {array} dto.AgentResponse
// @Router /api/manager/agents [get]
// @Security BearerAuth
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.ListAgents(r.Context())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list agents", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAgentResponses(agents))
}
