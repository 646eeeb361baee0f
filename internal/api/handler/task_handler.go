package handler

import (
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/task"
	"net/http"
)

type TaskHandler struct {
	service task.TaskService
	clock   Clock
	logger  *slog.Logger
}

func NewTaskHandler(s task.TaskService, clock Clock, l *slog.Logger) *TaskHandler {
	if s == nil {
		panic("task service cannot be nil")
	}
	return &TaskHandler{
		service: s,
		clock:   clock,
		logger:  l.With("component", "TaskHandler"),
	}
}

// CreateTask handles POST /tasks
// @Summary Assign a task to an agent
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequest true "Task"
// @Success 201 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse "Missing fields or unknown agent"
// @Router /api/manager/tasks [post]
// @Security BearerAuth
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	params, err := req.ToParams(h.clock().Location())
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateTask(r.Context(), params)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to create task", err)
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Task created", slog.String("taskID", created.ID), slog.String("agentID", created.AgentID))
	respondJSON(w, http.StatusCreated, dto.NewTaskResponse(created))
}

// ListTasks handles GET /tasks
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param agentId query string false "Agent code"
// @Param status query string false "Task status"
// @Success 200 {array} dto.TaskResponse
// @Router /api/manager/tasks [get]
// @Security BearerAuth
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.service.ListTasks(r.Context(), task.ListFilter{
		AgentID: q.Get("agentId"),
		Status:  task.Status(q.Get("status")),
	})
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list tasks", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTaskResponses(tasks))
}

// ListAgentTasks handles GET /agent/{agentId}/tasks
// @Summary Tasks of an agent by due date
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Param status query string false "Task status"
// @Success 200 {array} dto.TaskResponse
// @Router /api/manager/agent/{agentId}/tasks [get]
// @Security BearerAuth
func (h *TaskHandler) ListAgentTasks(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	tasks, err := h.service.ListAgentTasks(r.Context(), agentID, task.Status(r.URL.Query().Get("status")))
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list agent tasks", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTaskResponses(tasks))
}

// UpdateTask handles PATCH /tasks/{taskId}
// @Summary Change a task's status
// @Tags Tasks
// @Accept json
// @Produce json
// @Param taskId path string true "Task ID"
// @Param request body dto.UpdateTaskRequest true "Status and notes"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/tasks/{taskId} [patch]
// @Security BearerAuth
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "taskId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}

	updated, err := h.service.UpdateTaskStatus(r.Context(), id, task.Status(req.Status), req.Notes)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to update task", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTaskResponse(updated))
}

// DeleteTask handles DELETE /tasks/{taskId}
// @Summary Delete a task
// @Tags Tasks
// @Produce json
// @Param taskId path string true "Task ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/tasks/{taskId} [delete]
// @Security BearerAuth
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "taskId")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		logServiceError(r, h.logger, "Service failed to delete task", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully"})
}

// RepaymentTasksToday handles GET /agent/{agentId}/repayment-tasks-today
// @Summary Installments an agent should collect today
// @Description Derived from monthly schedules. force=true surfaces every loan's first installment.
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Param force query bool false "Treat every monthly loan as due"
// @Success 200 {array} dto.RepaymentTaskResponse
// @Router /api/manager/agent/{agentId}/repayment-tasks-today [get]
// @Security BearerAuth
func (h *TaskHandler) RepaymentTasksToday(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	tasks, err := h.service.RepaymentTasksToday(r.Context(), agentID, h.clock(), queryBool(r, "force"))
	if err != nil {
		logServiceError(r, h.logger, "Service failed to derive repayment tasks", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewRepaymentTaskResponses(tasks))
}
