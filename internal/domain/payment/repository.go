package payment

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	// ResolveLoanForUpdate locks the loan a payment goes against: loanID when
	// given, otherwise the borrower's most recent active loan.
	ResolveLoanForUpdate(ctx context.Context, tx pgx.Tx, borrowerID, loanID string) (string, error)

	InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) (*Payment, error)

	GetPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*Payment, error)

	MarkReversedInTx(ctx context.Context, tx pgx.Tx, paymentID, by, reason string) (*Payment, error)

	UpdatePaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string, e Edit) (*Payment, error)

	ListPayments(ctx context.Context, f ListFilter) ([]*Payment, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
