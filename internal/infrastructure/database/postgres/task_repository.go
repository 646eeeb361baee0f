package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/task"
	"microfinance-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, title, description, agent_id, assigned_by, due_date, priority, status, completed_at, notes, created_at`

type TaskRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ task.Repository = (*TaskRepository)(nil)

func NewTaskRepository(db DBPool, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger.With("component", "TaskRepository")}
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.AgentID, &t.AssignedBy, &t.DueDate,
		&t.Priority, &t.Status, &t.CompletedAt, &t.Notes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	query := `
        INSERT INTO tasks (id, title, description, agent_id, assigned_by, due_date, priority, status, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRow(ctx, query,
		t.ID, t.Title, t.Description, t.AgentID, t.AssignedBy, t.DueDate, t.Priority, t.Status, t.Notes))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert task", "agent_id", t.AgentID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return created, nil
}

func (r *TaskRepository) ListTasks(ctx context.Context, f task.ListFilter) ([]*task.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE ($1::text = '' OR agent_id = $1) AND ($2::text = '' OR status = $2)
        ORDER BY created_at DESC`
	return r.list(ctx, query, f.AgentID, string(f.Status))
}

func (r *TaskRepository) ListAgentTasks(ctx context.Context, agentID string, status task.Status) ([]*task.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE agent_id = $1 AND ($2::text = '' OR status = $2)
        ORDER BY due_date ASC`
	return r.list(ctx, query, agentID, string(status))
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query tasks", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan task row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tasks, nil
}

func (r *TaskRepository) UpdateTaskStatus(ctx context.Context, taskID string, status task.Status, notes string) (*task.Task, error) {
	query := `
        UPDATE tasks
        SET status = $1,
            notes = CASE WHEN $2::text = '' THEN notes ELSE $2 END,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
        WHERE id = $3
        RETURNING ` + taskColumns

	t, err := scanTask(r.db.QueryRow(ctx, query, status, notes, taskID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Task status updated in DB", "task_id", taskID, "status", status)
	return t, nil
}

func (r *TaskRepository) DeleteTask(ctx context.Context, taskID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete task", "task_id", taskID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %s", apperrors.ErrNotFound, taskID)
	}
	return nil
}
