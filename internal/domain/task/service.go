package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type TaskService interface {
	CreateTask(ctx context.Context, p CreateParams) (*Task, error)

	ListTasks(ctx context.Context, f ListFilter) ([]*Task, error)

	ListAgentTasks(ctx context.Context, agentID string, status Status) ([]*Task, error)

	UpdateTaskStatus(ctx context.Context, taskID string, status Status, notes string) (*Task, error)

	DeleteTask(ctx context.Context, taskID string) error

	// RepaymentTasksToday derives collection tasks for the agent's open
	// loans due on today's date. With force every monthly loan surfaces
	// its first installment.
	RepaymentTasksToday(ctx context.Context, agentID string, today time.Time, force bool) ([]RepaymentTask, error)
}

type taskServiceImpl struct {
	repo         Repository
	agentService agent.AgentService
	loanService  loan.LoanService
	currency     string
	logger       *slog.Logger
}

func NewTaskService(r Repository, as agent.AgentService, ls loan.LoanService, currency string, logger *slog.Logger) TaskService {
	return &taskServiceImpl{
		repo:         r,
		agentService: as,
		loanService:  ls,
		currency:     currency,
		logger:       logger.With("component", "task_service"),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, p CreateParams) (*Task, error) {
	p.Title, p.AgentID = strings.TrimSpace(p.Title), strings.TrimSpace(p.AgentID)
	if p.Title == "" || p.AgentID == "" || p.DueDate == nil {
		return nil, apperrors.NewValidationError("", "Title, agent ID, and due date are required")
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if !p.Priority.Valid() {
		return nil, apperrors.NewValidationError("priority", fmt.Sprintf("unknown priority %q", p.Priority))
	}

	if _, err := s.agentService.GetAgent(ctx, p.AgentID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		codes, lerr := s.agentService.ListAgentCodes(ctx)
		if lerr != nil {
			return nil, lerr
		}
		return nil, apperrors.NewValidationError("agentId", "Agent not found. Available agents: "+strings.Join(codes, ", "))
	}

	created, err := s.repo.CreateTask(ctx, &Task{
		Title:       p.Title,
		Description: p.Description,
		AgentID:     p.AgentID,
		AssignedBy:  DefaultAssigner,
		DueDate:     *p.DueDate,
		Priority:    p.Priority,
		Status:      StatusPending,
		Notes:       p.Notes,
	})
	if err != nil {
		s.logger.Error("Failed to create task", "agentID", p.AgentID, "error", err)
		return nil, fmt.Errorf("%w: failed to create task: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Task created", "taskID", created.ID, "agentID", created.AgentID)
	return created, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, f ListFilter) ([]*Task, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown task status %q", f.Status))
	}
	tasks, err := s.repo.ListTasks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks: %w", apperrors.ErrDatabase, err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) ListAgentTasks(ctx context.Context, agentID string, status Status) ([]*Task, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown task status %q", status))
	}
	tasks, err := s.repo.ListAgentTasks(ctx, agentID, status)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks of agent %s: %w", apperrors.ErrDatabase, agentID, err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTaskStatus(ctx context.Context, taskID string, status Status, notes string) (*Task, error) {
	if status == "" {
		return nil, apperrors.NewValidationError("status", "Status is required")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown task status %q", status))
	}

	updated, err := s.repo.UpdateTaskStatus(ctx, taskID, status, notes)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("task", taskID)
		}
		return nil, fmt.Errorf("%w: failed to update task %s: %w", apperrors.ErrDatabase, taskID, err)
	}
	return updated, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		if isNotFound(err) {
			return apperrors.NotFound("task", taskID)
		}
		return fmt.Errorf("%w: failed to delete task %s: %w", apperrors.ErrDatabase, taskID, err)
	}
	s.logger.Info("Task deleted", "taskID", taskID)
	return nil
}

func (s *taskServiceImpl) RepaymentTasksToday(ctx context.Context, agentID string, today time.Time, force bool) ([]RepaymentTask, error) {
	loans, err := s.loanService.ListAgentLoans(ctx, agentID, loan.StatusActive, loan.StatusApproved)
	if err != nil {
		return nil, err
	}

	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	end := start.AddDate(0, 0, 1)

	tasks := make([]RepaymentTask, 0)
	for _, l := range loans {
		if l.Frequency != loan.FrequencyMonthly {
			s.logger.Debug("Skipping loan without a monthly schedule", "loanID", l.ID, "frequency", l.Frequency)
			continue
		}

		var due []loan.Installment
		if force {
			due = loan.FirstInstallment(l, start.Location())
		} else {
			due = loan.DueInstallments(l, start, end)
		}
		for _, inst := range due {
			tasks = append(tasks, NewRepaymentTask(agentID, l, inst, s.currency, start))
		}
	}
	s.logger.Debug("Derived repayment tasks", "agentID", agentID, "loans", len(loans), "tasks", len(tasks))
	return tasks, nil
}
