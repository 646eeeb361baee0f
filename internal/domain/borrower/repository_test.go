package borrower

import (
	"context"
	"microfinance-backend/internal/domain/loan"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateBorrower(ctx context.Context, b *Borrower, l *loan.Loan) (*Borrower, error) {
	ret := _m.Called(ctx, b, l)

	var r0 *Borrower
	if rf, ok := ret.Get(0).(func(context.Context, *Borrower, *loan.Loan) *Borrower); ok {
		r0 = rf(ctx, b, l)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetBorrowerByID(ctx context.Context, borrowerID string) (*Borrower, error) {
	ret := _m.Called(ctx, borrowerID)

	var r0 *Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListBorrowers(ctx context.Context) ([]*Borrower, error) {
	ret := _m.Called(ctx)

	var r0 []*Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListBorrowersByApproval(ctx context.Context, approval ApprovalStatus) ([]*Borrower, error) {
	ret := _m.Called(ctx, approval)

	var r0 []*Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListBorrowersByAgent(ctx context.Context, agentID string, approval ApprovalStatus) ([]*Borrower, error) {
	ret := _m.Called(ctx, agentID, approval)

	var r0 []*Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLoansByBorrowerIDs(ctx context.Context, borrowerIDs []string) (map[string][]*loan.Loan, error) {
	ret := _m.Called(ctx, borrowerIDs)

	var r0 map[string][]*loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string][]*loan.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateBorrower(ctx context.Context, borrowerID string, u Update) (*Borrower, error) {
	ret := _m.Called(ctx, borrowerID, u)

	var r0 *Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) DeleteBorrowerCascade(ctx context.Context, borrowerID string) error {
	ret := _m.Called(ctx, borrowerID)
	return ret.Error(0)
}

func (_m *MockRepository) GetBorrowerForUpdate(ctx context.Context, tx pgx.Tx, borrowerID string) (*Borrower, error) {
	ret := _m.Called(ctx, tx, borrowerID)

	var r0 *Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) SetApprovalInTx(ctx context.Context, tx pgx.Tx, borrowerID string, approval ApprovalStatus, by, reason string) (*Borrower, error) {
	ret := _m.Called(ctx, tx, borrowerID, approval, by, reason)

	var r0 *Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Borrower)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) SetLoanStatusesInTx(ctx context.Context, tx pgx.Tx, borrowerID string, status loan.Status, except []loan.Status) (int64, error) {
	ret := _m.Called(ctx, tx, borrowerID, status, except)
	return ret.Get(0).(int64), ret.Error(1)
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
	return _m.Called(ctx, tx).Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}
