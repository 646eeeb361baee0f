package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) GetLoanByID(ctx context.Context, loanID string) (*Loan, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error) {
	ret := _m.Called(ctx, tx, loanID)

	var r0 *Loan
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, string) *Loan); ok {
		r0 = rf(ctx, tx, loanID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLedgerEntriesInTx(ctx context.Context, tx pgx.Tx, loanID string) ([]LedgerEntry, error) {
	ret := _m.Called(ctx, tx, loanID)

	var r0 []LedgerEntry
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, string) []LedgerEntry); ok {
		r0 = rf(ctx, tx, loanID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]LedgerEntry)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, loanID string, balance Balance, status Status) (*Loan, error) {
	ret := _m.Called(ctx, tx, loanID, balance, status)

	var r0 *Loan
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, string, Balance, Status) *Loan); ok {
		r0 = rf(ctx, tx, loanID, balance, status)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status Status, comment string) (*Loan, error) {
	ret := _m.Called(ctx, tx, loanID, status, comment)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLoans(ctx context.Context, status Status) ([]*Loan, error) {
	ret := _m.Called(ctx, status)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLoansByAgent(ctx context.Context, agentID string, statuses []Status) ([]*Loan, error) {
	ret := _m.Called(ctx, agentID, statuses)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLoanIDsByStatus(ctx context.Context, statuses []Status) ([]string, error) {
	ret := _m.Called(ctx, statuses)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLoanIDsByAgent(ctx context.Context, agentID string) ([]string, error) {
	ret := _m.Called(ctx, agentID)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)

	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}
