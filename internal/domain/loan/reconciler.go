package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/infrastructure/monitoring"
	"microfinance-backend/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Reconciliation describes one recomputation of a loan's balance.
type Reconciliation struct {
	Loan              *Loan
	PreviousStatus    Status
	PreviousTotalPaid decimal.Decimal
}

func (r Reconciliation) Changed() bool {
	return r.Loan.Status != r.PreviousStatus || !r.Loan.TotalPaid.Equal(r.PreviousTotalPaid)
}

// Reopened reports a paid loan that the ledger no longer covers, such as
// a manual set-paid override without matching payments.
func (r Reconciliation) Reopened() bool {
	return r.PreviousStatus == StatusPaid && r.Loan != nil && r.Loan.Status != StatusPaid
}

// Observer is told about every committed reconciliation.
type Observer interface {
	LoanReconciled(ctx context.Context, rec Reconciliation)
}

type NopObserver struct{}

func (NopObserver) LoanReconciled(context.Context, Reconciliation) {}

type Reconciler struct {
	repo     Repository
	observer Observer
	logger   *slog.Logger
}

func NewReconciler(repo Repository, observer Observer, logger *slog.Logger) *Reconciler {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Reconciler{
		repo:     repo,
		observer: observer,
		logger:   logger.With("component", "loan_reconciler"),
	}
}

// ReconcileLoan recomputes a loan in its own transaction. The loan row is
// locked for the duration so concurrent payment writes serialize on it.
func (r *Reconciler) ReconcileLoan(ctx context.Context, loanID string) (_ *Loan, err error) {
	tx, err := r.repo.BeginTx(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = r.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = r.repo.RollbackTx(ctx, tx)
		}
	}()

	rec, err := r.ReconcileInTx(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	if err = r.repo.CommitTx(ctx, tx); err != nil {
		r.logger.Error("Failed to commit reconciliation", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not commit reconciliation: %w", apperrors.ErrDatabase, err)
	}

	r.Notify(ctx, rec)
	return rec.Loan, nil
}

// ReconcileInTx runs inside a caller's transaction. The caller commits and
// then calls Notify.
func (r *Reconciler) ReconcileInTx(ctx context.Context, tx pgx.Tx, loanID string) (Reconciliation, error) {
	current, err := r.repo.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Loan not found for reconciliation", "loanID", loanID)
			monitoring.RecordReconciliation("not_found")
			return Reconciliation{}, apperrors.NotFound("loan", loanID)
		}
		monitoring.RecordReconciliation("failure")
		return Reconciliation{}, fmt.Errorf("%w: could not load loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}

	entries, err := r.repo.ListLedgerEntriesInTx(ctx, tx, loanID)
	if err != nil {
		monitoring.RecordReconciliation("failure")
		return Reconciliation{}, fmt.Errorf("%w: could not load payments of loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}

	balance := Reconcile(current.Amount, entries)
	status := NextStatus(current.Status, balance)

	updated, err := r.repo.UpdateBalanceInTx(ctx, tx, loanID, balance, status)
	if err != nil {
		monitoring.RecordReconciliation("failure")
		return Reconciliation{}, fmt.Errorf("%w: could not persist balance of loan %s: %w", apperrors.ErrDatabase, loanID, err)
	}

	r.logger.Debug("Loan reconciled",
		"loanID", loanID,
		"totalPaid", balance.TotalPaid.String(),
		"remainingAmount", balance.RemainingAmount.String(),
		"status", status,
		"previousStatus", current.Status,
	)
	monitoring.RecordReconciliation("success")

	rec := Reconciliation{
		Loan:              updated,
		PreviousStatus:    current.Status,
		PreviousTotalPaid: current.TotalPaid,
	}
	if rec.Reopened() {
		r.logger.Warn("Paid loan reopened by ledger",
			"loanID", loanID,
			"status", status,
			"previousTotalPaid", current.TotalPaid.String(),
			"remainingAmount", balance.RemainingAmount.String(),
		)
	}
	return rec, nil
}

func (r *Reconciler) Notify(ctx context.Context, rec Reconciliation) {
	if rec.Loan == nil {
		return
	}
	r.observer.LoanReconciled(ctx, rec)
}
