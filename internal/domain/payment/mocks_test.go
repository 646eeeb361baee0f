package payment

import (
	"context"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type TxMock struct {
	pgx.Tx
}

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) ResolveLoanForUpdate(ctx context.Context, tx pgx.Tx, borrowerID, loanID string) (string, error) {
	ret := _m.Called(ctx, tx, borrowerID, loanID)
	return ret.String(0), ret.Error(1)
}

func (_m *MockRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) (*Payment, error) {
	ret := _m.Called(ctx, tx, p)

	var r0 *Payment
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, *Payment) *Payment); ok {
		r0 = rf(ctx, tx, p)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*Payment, error) {
	ret := _m.Called(ctx, tx, paymentID)

	var r0 *Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) MarkReversedInTx(ctx context.Context, tx pgx.Tx, paymentID, by, reason string) (*Payment, error) {
	ret := _m.Called(ctx, tx, paymentID, by, reason)

	var r0 *Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdatePaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string, e Edit) (*Payment, error) {
	ret := _m.Called(ctx, tx, paymentID, e)

	var r0 *Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListPayments(ctx context.Context, f ListFilter) ([]*Payment, error) {
	ret := _m.Called(ctx, f)

	var r0 []*Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Payment)
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
	return _m.Called(ctx, tx).Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

type MockReconciler struct {
	mock.Mock
}

func (_m *MockReconciler) ReconcileInTx(ctx context.Context, tx pgx.Tx, loanID string) (loan.Reconciliation, error) {
	ret := _m.Called(ctx, tx, loanID)

	var r0 loan.Reconciliation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(loan.Reconciliation)
	}
	return r0, ret.Error(1)
}

func (_m *MockReconciler) Notify(ctx context.Context, rec loan.Reconciliation) {
	_m.Called(ctx, rec)
}

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) PaymentRecorded(ctx context.Context, p *Payment) error {
	return _m.Called(ctx, p).Error(0)
}

func (_m *MockPublisher) PaymentReversed(ctx context.Context, p *Payment) error {
	return _m.Called(ctx, p).Error(0)
}

type MockBorrowerService struct {
	mock.Mock
	borrower.BorrowerService
}

func (_m *MockBorrowerService) FindBorrower(ctx context.Context, borrowerID string) (*borrower.Borrower, error) {
	ret := _m.Called(ctx, borrowerID)

	var r0 *borrower.Borrower
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*borrower.Borrower)
	}
	return r0, ret.Error(1)
}

type MockAgentService struct {
	mock.Mock
	agent.AgentService
}

func (_m *MockAgentService) GetAgent(ctx context.Context, agentID string) (*agent.Agent, error) {
	ret := _m.Called(ctx, agentID)

	var r0 *agent.Agent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*agent.Agent)
	}
	return r0, ret.Error(1)
}
