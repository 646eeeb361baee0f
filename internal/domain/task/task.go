package task

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

const DefaultAssigner = "manager"

type Task struct {
	ID          string
	Title       string
	Description string
	AgentID     string
	AssignedBy  string
	DueDate     time.Time
	Priority    Priority
	Status      Status
	CompletedAt *time.Time
	Notes       string
	CreatedAt   time.Time
}

type CreateParams struct {
	Title       string
	Description string
	AgentID     string
	DueDate     *time.Time
	Priority    Priority
	Notes       string
}

type ListFilter struct {
	AgentID string
	Status  Status
}
