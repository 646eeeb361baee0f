package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"time"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `l.id, l.borrower_id, l.amount, l.total_paid, l.remaining_amount, l.interest_rate,
        l.tenure_months, l.frequency, l.purpose, l.assigned_agent, l.status, l.manager_comment,
        l.created_at, l.updated_at`

type LoanRepository struct {
	txSupport
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	l := logger.With("component", "LoanRepository")
	return &LoanRepository{txSupport: txSupport{db: db, logger: l}, db: db, logger: l}
}

func loanScanTargets(l *loan.Loan) []any {
	return []any{
		&l.ID, &l.BorrowerID, &l.Amount, &l.TotalPaid, &l.RemainingAmount, &l.InterestRatePercent,
		&l.TenureMonths, &l.Frequency, &l.Purpose, &l.AssignedAgent, &l.Status, &l.ManagerComment,
		&l.CreatedAt, &l.UpdatedAt,
	}
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	if err := row.Scan(loanScanTargets(&l)...); err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLoans(rows pgx.Rows) ([]*loan.Loan, error) {
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// insertLoan stores a new loan through q, which is a transaction when the
// loan is created together with its borrower.
func insertLoan(ctx context.Context, q querier, l *loan.Loan) (*loan.Loan, error) {
	query := `
        INSERT INTO loans AS l (id, borrower_id, amount, total_paid, remaining_amount, interest_rate,
            tenure_months, frequency, purpose, assigned_agent, status, manager_comment, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '', NOW(), NOW())
        RETURNING ` + loanColumns

	return scanLoan(q.QueryRow(ctx, query,
		l.ID, l.BorrowerID, l.Amount, l.TotalPaid, l.RemainingAmount, l.InterestRatePercent,
		l.TenureMonths, l.Frequency, l.Purpose, l.AssignedAgent, l.Status,
	))
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans l WHERE l.id = $1`

	startTime := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	observe("GetLoanByID", startTime, err)

	if err != nil {
		if err = translateDBError(err, r.logger); errors.Is(err, apperrors.ErrNotFound) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
		}
		return nil, err
	}
	return l, nil
}

// GetLoanForUpdate locks the loan row until tx ends.
func (r *LoanRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans l WHERE l.id = $1 FOR UPDATE`

	startTime := time.Now()
	l, err := scanLoan(tx.QueryRow(ctx, query, loanID))
	observe("GetLoanForUpdate", startTime, err)

	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return l, nil
}

func (r *LoanRepository) ListLedgerEntriesInTx(ctx context.Context, tx pgx.Tx, loanID string) ([]loan.LedgerEntry, error) {
	query := `SELECT amount, reversed FROM payments WHERE loan_id = $1`

	startTime := time.Now()
	rows, err := tx.Query(ctx, query, loanID)
	if err != nil {
		observe("ListLedgerEntries", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query ledger entries", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	entries := make([]loan.LedgerEntry, 0)
	for rows.Next() {
		var e loan.LedgerEntry
		if err := rows.Scan(&e.Amount, &e.Reversed); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan ledger entry", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	observe("ListLedgerEntries", startTime, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return entries, nil
}

func (r *LoanRepository) UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, loanID string, balance loan.Balance, status loan.Status) (*loan.Loan, error) {
	query := `
        UPDATE loans l
        SET total_paid = $1, remaining_amount = $2, status = $3, updated_at = NOW()
        WHERE l.id = $4
        RETURNING ` + loanColumns

	startTime := time.Now()
	l, err := scanLoan(tx.QueryRow(ctx, query, balance.TotalPaid, balance.RemainingAmount, status, loanID))
	observe("UpdateLoanBalance", startTime, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan balance", "loan_id", loanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	r.logger.DebugContext(ctx, "Loan balance updated in DB", "loan_id", loanID, "status", status)
	return l, nil
}

func (r *LoanRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status loan.Status, comment string) (*loan.Loan, error) {
	query := `
        UPDATE loans l
        SET status = $1, manager_comment = $2, updated_at = NOW()
        WHERE l.id = $3
        RETURNING ` + loanColumns

	l, err := scanLoan(tx.QueryRow(ctx, query, status, comment, loanID))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan status", "loan_id", loanID, "status", status, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Loan status updated in DB", "loan_id", loanID, "new_status", status)
	return l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context, status loan.Status) ([]*loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans l
        WHERE ($1::text = '' OR l.status = $1)
        ORDER BY l.created_at DESC`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		observe("ListLoans", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query loans", "status", status, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	loans, err := collectLoans(rows)
	observe("ListLoans", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read loan rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) ListLoansByAgent(ctx context.Context, agentID string, statuses []loan.Status) ([]*loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `,
            b.id, b.name, b.first_name, b.last_name, b.phone, b.email, b.address, b.city, b.state, b.pincode
        FROM loans l
        JOIN borrowers b ON b.id = l.borrower_id
        WHERE l.assigned_agent = $1 AND ($2::text[] IS NULL OR l.status = ANY($2))
        ORDER BY l.created_at DESC`

	var filter []string
	if len(statuses) > 0 {
		filter = statusStrings(statuses)
	}

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, agentID, filter)
	if err != nil {
		observe("ListLoansByAgent", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query agent loans", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		var l loan.Loan
		var c loan.BorrowerContact
		targets := append(loanScanTargets(&l),
			&c.ID, &c.Name, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address, &c.City, &c.State, &c.Pincode)
		if err := rows.Scan(targets...); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan agent loan row", "agent_id", agentID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		l.Borrower = &c
		loans = append(loans, &l)
	}
	err = rows.Err()
	observe("ListLoansByAgent", startTime, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) ListLoanIDsByStatus(ctx context.Context, statuses []loan.Status) ([]string, error) {
	query := `SELECT id FROM loans WHERE status = ANY($1) ORDER BY created_at`
	return r.collectIDs(ctx, "ListLoanIDsByStatus", query, statusStrings(statuses))
}

func (r *LoanRepository) ListLoanIDsByAgent(ctx context.Context, agentID string) ([]string, error) {
	query := `SELECT id FROM loans WHERE assigned_agent = $1 ORDER BY created_at`
	return r.collectIDs(ctx, "ListLoanIDsByAgent", query, agentID)
}

func (r *LoanRepository) collectIDs(ctx context.Context, name, query string, args ...any) ([]string, error) {
	logCtx := r.logger.With(slog.String("operation", name))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query loan IDs", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query loan ids: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan loan ID row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning loan id: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating loan ID rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating loan ids: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished listing loan IDs", slog.Int("count", len(ids)))
	return ids, nil
}
