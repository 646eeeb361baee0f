package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReconcilableStatuses are the statuses the nightly reconcile pass visits.
var ReconcilableStatuses = []Status{StatusActive, StatusApproved, StatusPaid}

type LoanService interface {
	GetLoan(ctx context.Context, loanID string) (*Loan, error)

	ListLoans(ctx context.Context, status Status) ([]*Loan, error)

	ListAgentLoans(ctx context.Context, agentID string, statuses ...Status) ([]*Loan, error)

	DecideLoan(ctx context.Context, loanID string, approved bool, comment string) (*Loan, error)

	CancelLoan(ctx context.Context, loanID string, comment string) (*Loan, error)

	SetPaid(ctx context.Context, loanID string) (*Loan, error)

	ReconcileLoan(ctx context.Context, loanID string) (*Loan, error)

	ReconcileAgentLoans(ctx context.Context, agentID string) ([]*Loan, error)

	ListReconcilableLoanIDs(ctx context.Context) ([]string, error)
}

type loanServiceImpl struct {
	repo       Repository
	reconciler *Reconciler
	logger     *slog.Logger
}

func NewLoanService(r Repository, reconciler *Reconciler, logger *slog.Logger) LoanService {
	return &loanServiceImpl{repo: r, reconciler: reconciler, logger: logger.With("component", "loan_service")}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn("Loan not found", "loanID", loanID)
			return nil, apperrors.NotFound("loan", loanID)
		}
		s.logger.Error("Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, status Status) ([]*Loan, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown loan status %q", status))
	}
	loans, err := s.repo.ListLoans(ctx, status)
	if err != nil {
		s.logger.Error("Failed to list loans", "status", status, "error", err)
		return nil, fmt.Errorf("%w: failed to list loans: %w", apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (s *loanServiceImpl) ListAgentLoans(ctx context.Context, agentID string, statuses ...Status) ([]*Loan, error) {
	loans, err := s.repo.ListLoansByAgent(ctx, agentID, statuses)
	if err != nil {
		s.logger.Error("Failed to list agent loans", "agentID", agentID, "error", err)
		return nil, fmt.Errorf("%w: failed to list loans of agent %s: %w", apperrors.ErrDatabase, agentID, err)
	}
	return loans, nil
}

// changeStatus locks the loan, lets decide pick the new status and writes it.
func (s *loanServiceImpl) changeStatus(ctx context.Context, loanID, comment string, decide func(*Loan) (Status, error)) (_ *Loan, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	current, err := s.repo.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("loan", loanID)
		}
		return nil, fmt.Errorf("%w: could not load loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}

	next, err := decide(current)
	if err != nil {
		s.logger.Warn("Rejected loan status change", "loanID", loanID, "status", current.Status, "error", err)
		return nil, err
	}

	updated, err := s.repo.UpdateStatusInTx(ctx, tx, loanID, next, comment)
	if err != nil {
		s.logger.Error("Failed to update loan status", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not update loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Loan status changed", "loanID", loanID, "from", current.Status, "to", next)
	return updated, nil
}

func (s *loanServiceImpl) DecideLoan(ctx context.Context, loanID string, approved bool, comment string) (*Loan, error) {
	return s.changeStatus(ctx, loanID, comment, func(l *Loan) (Status, error) {
		return DecisionStatus(l.Status, approved)
	})
}

func (s *loanServiceImpl) CancelLoan(ctx context.Context, loanID string, comment string) (*Loan, error) {
	return s.changeStatus(ctx, loanID, comment, func(*Loan) (Status, error) {
		return StatusCancelled, nil
	})
}

// SetPaid is the manual override that marks the whole principal collected.
func (s *loanServiceImpl) SetPaid(ctx context.Context, loanID string) (_ *Loan, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	current, err := s.repo.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("loan", loanID)
		}
		return nil, fmt.Errorf("%w: could not load loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}

	balance := Balance{TotalPaid: current.Amount, RemainingAmount: decimal.Zero, IsFullyPaid: true}
	updated, err := s.repo.UpdateBalanceInTx(ctx, tx, loanID, balance, StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("%w: could not mark loan %s paid: %w", apperrors.ErrDatabase, loanID, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Loan manually marked paid", "loanID", loanID, "previousStatus", current.Status)
	return updated, nil
}

func (s *loanServiceImpl) ReconcileLoan(ctx context.Context, loanID string) (*Loan, error) {
	return s.reconciler.ReconcileLoan(ctx, loanID)
}

func (s *loanServiceImpl) ReconcileAgentLoans(ctx context.Context, agentID string) ([]*Loan, error) {
	ids, err := s.repo.ListLoanIDsByAgent(ctx, agentID)
	if err != nil {
		s.logger.Error("Failed to list agent loan ids", "agentID", agentID, "error", err)
		return nil, fmt.Errorf("%w: failed to list loans of agent %s: %w", apperrors.ErrDatabase, agentID, err)
	}

	loans := make([]*Loan, 0, len(ids))
	for _, id := range ids {
		l, err := s.reconciler.ReconcileLoan(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		loans = append(loans, l)
	}
	s.logger.Info("Reconciled agent loans", "agentID", agentID, "count", len(loans))
	return loans, nil
}

func (s *loanServiceImpl) ListReconcilableLoanIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListLoanIDsByStatus(ctx, ReconcilableStatuses)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list loan ids: %w", apperrors.ErrDatabase, err)
	}
	return ids, nil
}
