package task

import "context"

type Repository interface {
	CreateTask(ctx context.Context, t *Task) (*Task, error)

	// ListTasks returns newest first.
	ListTasks(ctx context.Context, f ListFilter) ([]*Task, error)

	// ListAgentTasks returns the agent's tasks by ascending due date.
	ListAgentTasks(ctx context.Context, agentID string, status Status) ([]*Task, error)

	// UpdateTaskStatus stamps completed_at when status is completed. Empty
	// notes leave the stored notes alone.
	UpdateTaskStatus(ctx context.Context, taskID string, status Status, notes string) (*Task, error)

	DeleteTask(ctx context.Context, taskID string) error
}
