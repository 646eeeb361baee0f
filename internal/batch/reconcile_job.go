package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"sync"
	"sync/atomic"
	"time"
)

const defaultWorkers = 4

// ReconcileJob recomputes every open loan's ledger from its payments. It
// repairs balances that drifted because of manual edits in the database.
type ReconcileJob struct {
	loanService loan.LoanService
	workers     int
	logger      *slog.Logger
}

func NewReconcileJob(loanSvc loan.LoanService, workers int, logger *slog.Logger) *ReconcileJob {
	if loanSvc == nil || logger == nil {
		panic("ReconcileJob dependencies cannot be nil")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &ReconcileJob{
		loanService: loanSvc,
		workers:     workers,
		logger:      logger.With("job", "ReconcileLoans"),
	}
}

func (j *ReconcileJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting loan reconciliation job.")

	loanIDs, err := j.loanService.ListReconcilableLoanIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list loans, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched loan IDs.", slog.Int("count", len(loanIDs)))

	if len(loanIDs) == 0 {
		j.logger.InfoContext(ctx, "No loans found to reconcile.")
		return nil
	}

	var processed, missing, failed atomic.Int32
	ids := make(chan string)
	var wg sync.WaitGroup

	for range min(j.workers, len(loanIDs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				logCtx := j.logger.With(slog.String("loanID", id))
				if _, err := j.loanService.ReconcileLoan(ctx, id); err != nil {
					if errors.Is(err, apperrors.ErrNotFound) {
						logCtx.WarnContext(ctx, "Loan disappeared before reconciliation", slog.Any("error", err))
						missing.Add(1)
					} else {
						logCtx.ErrorContext(ctx, "Failed to reconcile loan", slog.Any("error", err))
						failed.Add(1)
					}
					continue
				}
				processed.Add(1)
			}
		}()
	}

feed:
	for _, id := range loanIDs {
		select {
		case ids <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(ids)
	wg.Wait()

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_loans", len(loanIDs)),
		slog.Int("loans_reconciled", int(processed.Load())),
		slog.Int("loans_missing", int(missing.Load())),
		slog.Int("errors_encountered", int(failed.Load())),
	)

	if err := ctx.Err(); err != nil {
		summaryLog.WarnContext(ctx, "Loan reconciliation job interrupted.", slog.Any("error", err))
		return fmt.Errorf("job interrupted: %w", err)
	}
	if n := failed.Load(); n > 0 {
		summaryLog.WarnContext(ctx, "Loan reconciliation job finished with errors.")
		return fmt.Errorf("job completed with %d errors", n)
	}
	summaryLog.InfoContext(ctx, "Loan reconciliation job finished successfully.")
	return nil
}
