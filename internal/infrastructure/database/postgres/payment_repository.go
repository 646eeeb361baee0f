package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"microfinance-backend/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, loan_id, borrower_id, agent_id, amount, payment_mode, latitude, longitude, receipt_name,
        reversed, reversed_at, reversed_by, reversal_reason, created_at`

type PaymentRepository struct {
	txSupport
	db     DBPool
	logger *slog.Logger
}

var _ payment.Repository = (*PaymentRepository)(nil)

func NewPaymentRepository(db DBPool, logger *slog.Logger) *PaymentRepository {
	l := logger.With("component", "PaymentRepository")
	return &PaymentRepository{txSupport: txSupport{db: db, logger: l}, db: db, logger: l}
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var lat, lng *float64
	err := row.Scan(
		&p.ID, &p.LoanID, &p.BorrowerID, &p.AgentID, &p.Amount, &p.Mode, &lat, &lng, &p.ReceiptName,
		&p.Reversed, &p.ReversedAt, &p.ReversedBy, &p.ReversalReason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil || lng != nil {
		p.Location = &payment.Location{Latitude: lat, Longitude: lng}
	}
	return &p, nil
}

func coordinates(l *payment.Location) (lat, lng *float64) {
	if l == nil {
		return nil, nil
	}
	return l.Latitude, l.Longitude
}

// ResolveLoanForUpdate locks loanID when given, otherwise the borrower's
// most recent active loan.
func (r *PaymentRepository) ResolveLoanForUpdate(ctx context.Context, tx pgx.Tx, borrowerID, loanID string) (string, error) {
	var row pgx.Row
	if loanID != "" {
		row = tx.QueryRow(ctx, `SELECT id FROM loans WHERE id = $1 FOR UPDATE`, loanID)
	} else {
		query := `
            SELECT id FROM loans
            WHERE borrower_id = $1 AND status = $2
            ORDER BY created_at DESC
            LIMIT 1
            FOR UPDATE`
		row = tx.QueryRow(ctx, query, borrowerID, loan.StatusActive)
	}

	var id string
	if err := row.Scan(&id); err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrNotFound) {
			r.logger.InfoContext(ctx, "No loan to record payment against", "borrower_id", borrowerID, "loan_id", loanID)
		}
		return "", translated
	}
	return id, nil
}

func (r *PaymentRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *payment.Payment) (*payment.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	lat, lng := coordinates(p.Location)

	query := `
        INSERT INTO payments (id, loan_id, borrower_id, agent_id, amount, payment_mode, latitude, longitude,
            receipt_name, reversed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, NOW())
        RETURNING ` + paymentColumns

	startTime := time.Now()
	created, err := scanPayment(tx.QueryRow(ctx, query,
		p.ID, p.LoanID, p.BorrowerID, p.AgentID, p.Amount, p.Mode, lat, lng, p.ReceiptName,
	))
	observe("InsertPayment", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert payment", "loan_id", p.LoanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Payment inserted in DB", "payment_id", created.ID, "loan_id", created.LoanID)
	return created, nil
}

func (r *PaymentRepository) GetPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	p, err := scanPayment(tx.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return p, nil
}

func (r *PaymentRepository) MarkReversedInTx(ctx context.Context, tx pgx.Tx, paymentID, by, reason string) (*payment.Payment, error) {
	query := `
        UPDATE payments
        SET reversed = TRUE, reversed_at = NOW(), reversed_by = $1, reversal_reason = $2
        WHERE id = $3 AND reversed = FALSE
        RETURNING ` + paymentColumns

	startTime := time.Now()
	p, err := scanPayment(tx.QueryRow(ctx, query, by, reason, paymentID))
	observe("MarkPaymentReversed", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to reverse payment", "payment_id", paymentID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return p, nil
}

// UpdatePaymentInTx applies the non-nil fields of e.
func (r *PaymentRepository) UpdatePaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string, e payment.Edit) (*payment.Payment, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if e.Amount != nil {
		set("amount", *e.Amount)
	}
	if e.Mode != nil {
		set("payment_mode", *e.Mode)
	}
	if e.Location != nil {
		lat, lng := coordinates(e.Location)
		set("latitude", lat)
		set("longitude", lng)
	}
	if e.ReceiptName != nil {
		set("receipt_name", *e.ReceiptName)
	}
	if len(sets) == 0 {
		return r.GetPaymentForUpdate(ctx, tx, paymentID)
	}

	args = append(args, paymentID)
	query := fmt.Sprintf(`UPDATE payments SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), paymentColumns)

	p, err := scanPayment(tx.QueryRow(ctx, query, args...))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update payment", "payment_id", paymentID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return p, nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	query := `
        SELECT ` + paymentColumns + `
        FROM payments
        WHERE ($1::timestamptz IS NULL OR created_at >= $1)
          AND ($2::timestamptz IS NULL OR created_at <= $2)
          AND ($3::text = '' OR agent_id = $3)
          AND ($4::boolean OR NOT reversed)
        ORDER BY created_at DESC`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, f.From, f.To, f.AgentID, f.IncludeReversed)
	if err != nil {
		observe("ListPayments", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query payments", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	payments, err := collectPayments(rows)
	observe("ListPayments", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read payment rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func collectPayments(rows pgx.Rows) ([]*payment.Payment, error) {
	defer rows.Close()

	payments := make([]*payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
