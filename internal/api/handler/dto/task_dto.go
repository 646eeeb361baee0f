package dto

import (
	"microfinance-backend/internal/domain/task"
	"microfinance-backend/internal/pkg/apperrors"
	"time"
)

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AgentID     string `json:"agentId"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes       string `json:"notes"`
}

func (r *CreateTaskRequest) Validate() error {
	return validateStruct(r)
}

func (r *CreateTaskRequest) ToParams(loc *time.Location) (task.CreateParams, error) {
	due, err := ParseDay(r.DueDate, loc)
	if err != nil {
		return task.CreateParams{}, apperrors.NewValidationError("dueDate", err.Error())
	}
	return task.CreateParams{
		Title:       r.Title,
		Description: r.Description,
		AgentID:     r.AgentID,
		DueDate:     due,
		Priority:    task.Priority(r.Priority),
		Notes:       r.Notes,
	}, nil
}

type UpdateTaskRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AgentID     string     `json:"agentId"`
	AssignedBy  string     `json:"assignedBy"`
	DueDate     time.Time  `json:"dueDate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AgentID:     t.AgentID,
		AssignedBy:  t.AssignedBy,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CompletedAt: t.CompletedAt,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
	}
}

func NewTaskResponses(tasks []*task.Task) []TaskResponse {
	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = NewTaskResponse(t)
	}
	return resp
}

type RepaymentTaskResponse struct {
	ID              string    `json:"id"`
	AgentID         string    `json:"agentId"`
	LoanID          string    `json:"loanId"`
	BorrowerID      string    `json:"borrowerId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DueDate         time.Time `json:"dueDate"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	LocationAddress string    `json:"locationAddress"`
	LocationURL     string    `json:"locationUrl,omitempty"`
}

func NewRepaymentTaskResponses(tasks []task.RepaymentTask) []RepaymentTaskResponse {
	resp := make([]RepaymentTaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = RepaymentTaskResponse{
			ID:              t.ID,
			AgentID:         t.AgentID,
			LoanID:          t.LoanID,
			BorrowerID:      t.BorrowerID,
			Title:           t.Title,
			Description:     t.Description,
			DueDate:         t.DueDate,
			Status:          string(t.Status),
			CreatedAt:       t.CreatedAt,
			LocationAddress: t.LocationAddress,
			LocationURL:     t.LocationURL,
		}
	}
	return resp
}
