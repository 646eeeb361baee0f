package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	GetLoanByID(ctx context.Context, loanID string) (*Loan, error)

	GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error)

	ListLedgerEntriesInTx(ctx context.Context, tx pgx.Tx, loanID string) ([]LedgerEntry, error)

	UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, loanID string, balance Balance, status Status) (*Loan, error)

	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status Status, comment string) (*Loan, error)

	ListLoans(ctx context.Context, status Status) ([]*Loan, error)

	// ListLoansByAgent joins the borrower contact onto each loan.
	ListLoansByAgent(ctx context.Context, agentID string, statuses []Status) ([]*Loan, error)

	ListLoanIDsByStatus(ctx context.Context, statuses []Status) ([]string, error)

	ListLoanIDsByAgent(ctx context.Context, agentID string) ([]string, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
