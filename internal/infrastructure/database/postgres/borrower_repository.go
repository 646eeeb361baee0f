package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const borrowerColumns = `id, name, first_name, last_name, email, phone, date_of_birth, address, city, state,
        pincode, assigned_agent, status, approval_status, approved_by, approved_at, rejected_by, rejected_at,
        rejection_reason, created_at`

type BorrowerRepository struct {
	txSupport
	db     DBPool
	logger *slog.Logger
}

var _ borrower.Repository = (*BorrowerRepository)(nil)

func NewBorrowerRepository(db DBPool, logger *slog.Logger) *BorrowerRepository {
	l := logger.With("component", "BorrowerRepository")
	return &BorrowerRepository{txSupport: txSupport{db: db, logger: l}, db: db, logger: l}
}

func scanBorrower(row pgx.Row) (*borrower.Borrower, error) {
	var b borrower.Borrower
	err := row.Scan(
		&b.ID, &b.Name, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.DateOfBirth, &b.Address, &b.City, &b.State,
		&b.Pincode, &b.AssignedAgent, &b.Status, &b.ApprovalStatus, &b.ApprovedBy, &b.ApprovedAt, &b.RejectedBy, &b.RejectedAt,
		&b.RejectionReason, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BorrowerRepository) CreateBorrower(ctx context.Context, b *borrower.Borrower, l *loan.Loan) (created *borrower.Borrower, err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = r.RollbackTx(ctx, tx)
		}
	}()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `
        INSERT INTO borrowers (id, name, first_name, last_name, email, phone, date_of_birth, address, city, state,
            pincode, assigned_agent, status, approval_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
        RETURNING ` + borrowerColumns

	startTime := time.Now()
	created, err = scanBorrower(tx.QueryRow(ctx, query,
		b.ID, b.Name, b.FirstName, b.LastName, b.Email, b.Phone, b.DateOfBirth, b.Address, b.City, b.State,
		b.Pincode, b.AssignedAgent, b.Status, b.ApprovalStatus,
	))
	observe("InsertBorrower", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert borrower", "error", err)
		return nil, translateDBError(err, r.logger)
	}

	created.Loans = make([]*loan.Loan, 0, 1)
	if l != nil {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		l.BorrowerID = created.ID

		var inserted *loan.Loan
		inserted, err = insertLoan(ctx, tx, l)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert borrower loan", "borrower_id", created.ID, "error", err)
			return nil, translateDBError(err, r.logger)
		}
		created.Loans = append(created.Loans, inserted)
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "Borrower created in DB", "borrower_id", created.ID, "with_loan", l != nil)
	return created, nil
}

func (r *BorrowerRepository) GetBorrowerByID(ctx context.Context, borrowerID string) (*borrower.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE id = $1`

	startTime := time.Now()
	b, err := scanBorrower(r.db.QueryRow(ctx, query, borrowerID))
	observe("GetBorrowerByID", startTime, err)

	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return b, nil
}

func (r *BorrowerRepository) GetBorrowerForUpdate(ctx context.Context, tx pgx.Tx, borrowerID string) (*borrower.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE id = $1 FOR UPDATE`

	b, err := scanBorrower(tx.QueryRow(ctx, query, borrowerID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return b, nil
}

func (r *BorrowerRepository) ListBorrowers(ctx context.Context) ([]*borrower.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers ORDER BY created_at DESC`
	return r.list(ctx, "ListBorrowers", query)
}

func (r *BorrowerRepository) ListBorrowersByApproval(ctx context.Context, approval borrower.ApprovalStatus) ([]*borrower.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE approval_status = $1 ORDER BY created_at DESC`
	return r.list(ctx, "ListBorrowersByApproval", query, approval)
}

func (r *BorrowerRepository) ListBorrowersByAgent(ctx context.Context, agentID string, approval borrower.ApprovalStatus) ([]*borrower.Borrower, error) {
	query := `
        SELECT ` + borrowerColumns + `
        FROM borrowers
        WHERE assigned_agent = $1 AND approval_status = $2
        ORDER BY created_at DESC`
	return r.list(ctx, "ListBorrowersByAgent", query, agentID, approval)
}

func (r *BorrowerRepository) list(ctx context.Context, name, query string, args ...any) ([]*borrower.Borrower, error) {
	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		observe(name, startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query borrowers", "operation", name, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	borrowers := make([]*borrower.Borrower, 0)
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan borrower row", "operation", name, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		borrowers = append(borrowers, b)
	}
	err = rows.Err()
	observe(name, startTime, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return borrowers, nil
}

func (r *BorrowerRepository) ListLoansByBorrowerIDs(ctx context.Context, borrowerIDs []string) (map[string][]*loan.Loan, error) {
	byBorrower := make(map[string][]*loan.Loan, len(borrowerIDs))
	if len(borrowerIDs) == 0 {
		return byBorrower, nil
	}

	query := `SELECT ` + loanColumns + ` FROM loans l WHERE l.borrower_id = ANY($1) ORDER BY l.created_at DESC`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, borrowerIDs)
	if err != nil {
		observe("ListLoansByBorrowerIDs", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query borrower loans", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	loans, err := collectLoans(rows)
	observe("ListLoansByBorrowerIDs", startTime, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	for _, l := range loans {
		byBorrower[l.BorrowerID] = append(byBorrower[l.BorrowerID], l)
	}
	return byBorrower, nil
}

// UpdateBorrower writes only the fields set on u.
func (r *BorrowerRepository) UpdateBorrower(ctx context.Context, borrowerID string, u borrower.Update) (*borrower.Borrower, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.FirstName != nil {
		set("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		set("last_name", *u.LastName)
	}
	if u.Email != nil {
		set("email", *u.Email)
	}
	if u.Phone != nil {
		set("phone", *u.Phone)
	}
	if u.DateOfBirth != nil {
		set("date_of_birth", *u.DateOfBirth)
	}
	if u.Address != nil {
		set("address", *u.Address)
	}
	if u.City != nil {
		set("city", *u.City)
	}
	if u.State != nil {
		set("state", *u.State)
	}
	if u.Pincode != nil {
		set("pincode", *u.Pincode)
	}
	if u.AssignedAgent != nil {
		set("assigned_agent", *u.AssignedAgent)
	}
	if u.Status != nil {
		set("status", *u.Status)
	}
	if len(sets) == 0 {
		return r.GetBorrowerByID(ctx, borrowerID)
	}

	args = append(args, borrowerID)
	query := fmt.Sprintf(`UPDATE borrowers SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), borrowerColumns)

	startTime := time.Now()
	b, err := scanBorrower(r.db.QueryRow(ctx, query, args...))
	observe("UpdateBorrower", startTime, err)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Borrower updated in DB", "borrower_id", borrowerID, "fields", len(sets))
	return b, nil
}

// DeleteBorrowerCascade removes payments first, then loans, then the
// borrower, all in one transaction.
func (r *BorrowerRepository) DeleteBorrowerCascade(ctx context.Context, borrowerID string) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.RollbackTx(ctx, tx)
		}
	}()

	paymentsSQL := `
        DELETE FROM payments
        WHERE borrower_id = $1 OR loan_id IN (SELECT id FROM loans WHERE borrower_id = $1)`
	payments, err := tx.Exec(ctx, paymentsSQL, borrowerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete borrower payments", "borrower_id", borrowerID, "error", err)
		return translateDBError(err, r.logger)
	}

	loans, err := tx.Exec(ctx, `DELETE FROM loans WHERE borrower_id = $1`, borrowerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete borrower loans", "borrower_id", borrowerID, "error", err)
		return translateDBError(err, r.logger)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM borrowers WHERE id = $1`, borrowerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete borrower", "borrower_id", borrowerID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		err = fmt.Errorf("%w: borrower %s", apperrors.ErrNotFound, borrowerID)
		return err
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Borrower deleted with cascade", "borrower_id", borrowerID,
		"loans", loans.RowsAffected(), "payments", payments.RowsAffected())
	return nil
}

func (r *BorrowerRepository) SetApprovalInTx(ctx context.Context, tx pgx.Tx, borrowerID string, approval borrower.ApprovalStatus, by, reason string) (*borrower.Borrower, error) {
	var query string
	var args []any
	switch approval {
	case borrower.ApprovalApproved:
		query = `UPDATE borrowers SET approval_status = $1, approved_by = $2, approved_at = NOW() WHERE id = $3 RETURNING ` + borrowerColumns
		args = []any{approval, by, borrowerID}
	case borrower.ApprovalRejected:
		query = `UPDATE borrowers SET approval_status = $1, rejected_by = $2, rejected_at = NOW(), rejection_reason = $3 WHERE id = $4 RETURNING ` + borrowerColumns
		args = []any{approval, by, reason, borrowerID}
	default:
		return nil, fmt.Errorf("%w: unsupported approval status %q", apperrors.ErrInvalidArgument, approval)
	}

	b, err := scanBorrower(tx.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to set borrower approval", "borrower_id", borrowerID, "approval", approval, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return b, nil
}

func (r *BorrowerRepository) SetLoanStatusesInTx(ctx context.Context, tx pgx.Tx, borrowerID string, status loan.Status, except []loan.Status) (int64, error) {
	query := `
        UPDATE loans
        SET status = $1, updated_at = NOW()
        WHERE borrower_id = $2 AND NOT (status = ANY($3))`

	cmdTag, err := tx.Exec(ctx, query, status, borrowerID, statusStrings(except))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update borrower loan statuses", "borrower_id", borrowerID, "status", status, "error", err)
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return cmdTag.RowsAffected(), nil
}
