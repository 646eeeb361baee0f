package borrower

import (
	"context"
	"microfinance-backend/internal/domain/loan"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	// CreateBorrower stores the borrower and, when l is not nil, its first loan
	// in the same transaction.
	CreateBorrower(ctx context.Context, b *Borrower, l *loan.Loan) (*Borrower, error)

	GetBorrowerByID(ctx context.Context, borrowerID string) (*Borrower, error)

	ListBorrowers(ctx context.Context) ([]*Borrower, error)

	ListBorrowersByApproval(ctx context.Context, approval ApprovalStatus) ([]*Borrower, error)

	ListBorrowersByAgent(ctx context.Context, agentID string, approval ApprovalStatus) ([]*Borrower, error)

	// ListLoansByBorrowerIDs groups loans by borrower id, newest first.
	ListLoansByBorrowerIDs(ctx context.Context, borrowerIDs []string) (map[string][]*loan.Loan, error)

	UpdateBorrower(ctx context.Context, borrowerID string, u Update) (*Borrower, error)

	// DeleteBorrowerCascade removes the borrower, its loans and their payments.
	DeleteBorrowerCascade(ctx context.Context, borrowerID string) error

	GetBorrowerForUpdate(ctx context.Context, tx pgx.Tx, borrowerID string) (*Borrower, error)

	SetApprovalInTx(ctx context.Context, tx pgx.Tx, borrowerID string, approval ApprovalStatus, by, reason string) (*Borrower, error)

	SetLoanStatusesInTx(ctx context.Context, tx pgx.Tx, borrowerID string, status loan.Status, except []loan.Status) (int64, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
