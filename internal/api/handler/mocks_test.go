package handler

import (
	"context"
	"io"
	"log/slog"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"microfinance-backend/internal/domain/report"
	"microfinance-backend/internal/domain/task"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testLoc = time.FixedZone("IST", 5*3600+1800)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, testLoc)
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := &chi.Context{}
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type MockBorrowerService struct {
	mock.Mock
}

func (m *MockBorrowerService) CreateBorrower(ctx context.Context, p borrower.CreateParams) (*borrower.Borrower, error) {
	args := m.Called(ctx, p)
	if b, ok := args.Get(0).(*borrower.Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) GetBorrower(ctx context.Context, borrowerID string) (*borrower.Borrower, error) {
	args := m.Called(ctx, borrowerID)
	if b, ok := args.Get(0).(*borrower.Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) FindBorrower(ctx context.Context, borrowerID string) (*borrower.Borrower, error) {
	args := m.Called(ctx, borrowerID)
	if b, ok := args.Get(0).(*borrower.Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) ListBorrowers(ctx context.Context, includeLoans bool) ([]*borrower.Borrower, error) {
	args := m.Called(ctx, includeLoans)
	if bs, ok := args.Get(0).([]*borrower.Borrower); ok {
		return bs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) UpdateBorrower(ctx context.Context, borrowerID string, u borrower.Update) (*borrower.Borrower, error) {
	args := m.Called(ctx, borrowerID, u)
	if b, ok := args.Get(0).(*borrower.Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) DeleteBorrower(ctx context.Context, borrowerID string) error {
	return m.Called(ctx, borrowerID).Error(0)
}

func (m *MockBorrowerService) ListPendingApprovals(ctx context.Context) ([]borrower.Approval, error) {
	args := m.Called(ctx)
	if as, ok := args.Get(0).([]borrower.Approval); ok {
		return as, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) ApproveBorrower(ctx context.Context, borrowerID, approvedBy string) (*borrower.Borrower, error) {
	args := m.Called(ctx, borrowerID, approvedBy)
	if b, ok := args.Get(0).(*borrower.Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) RejectBorrower(ctx context.Context, borrowerID, rejectedBy, reason string) (*borrower.Borrower, error) {
	args := m.Called(ctx, borrowerID, rejectedBy, reason)
	if b, ok := args.Get(0).(*borrower.Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBorrowerService) ListAgentBorrowers(ctx context.Context, agentID string) ([]*borrower.Borrower, error) {
	args := m.Called(ctx, agentID)
	if bs, ok := args.Get(0).([]*borrower.Borrower); ok {
		return bs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) CreateAgent(ctx context.Context, p agent.CreateParams) (*agent.Agent, error) {
	args := m.Called(ctx, p)
	if a, ok := args.Get(0).(*agent.Agent); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) ListAgents(ctx context.Context) ([]*agent.Agent, error) {
	args := m.Called(ctx)
	if as, ok := args.Get(0).([]*agent.Agent); ok {
		return as, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) GetAgent(ctx context.Context, agentID string) (*agent.Agent, error) {
	args := m.Called(ctx, agentID)
	if a, ok := args.Get(0).(*agent.Agent); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) Login(ctx context.Context, phone, agentID string) (*agent.Agent, error) {
	args := m.Called(ctx, phone, agentID)
	if a, ok := args.Get(0).(*agent.Agent); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentService) ListAgentCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if codes, ok := args.Get(0).([]string); ok {
		return codes, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, status loan.Status) ([]*loan.Loan, error) {
	args := m.Called(ctx, status)
	if ls, ok := args.Get(0).([]*loan.Loan); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListAgentLoans(ctx context.Context, agentID string, statuses ...loan.Status) ([]*loan.Loan, error) {
	args := m.Called(ctx, agentID, statuses)
	if ls, ok := args.Get(0).([]*loan.Loan); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) DecideLoan(ctx context.Context, loanID string, approved bool, comment string) (*loan.Loan, error) {
	args := m.Called(ctx, loanID, approved, comment)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) CancelLoan(ctx context.Context, loanID string, comment string) (*loan.Loan, error) {
	args := m.Called(ctx, loanID, comment)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) SetPaid(ctx context.Context, loanID string) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ReconcileLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ReconcileAgentLoans(ctx context.Context, agentID string) ([]*loan.Loan, error) {
	args := m.Called(ctx, agentID)
	if ls, ok := args.Get(0).([]*loan.Loan); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListReconcilableLoanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, p payment.CreateParams) (*payment.Payment, error) {
	args := m.Called(ctx, p)
	if created, ok := args.Get(0).(*payment.Payment); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	args := m.Called(ctx, f)
	if ps, ok := args.Get(0).([]*payment.Payment); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) ReversePayment(ctx context.Context, paymentID, by, reason string) (*payment.Result, error) {
	args := m.Called(ctx, paymentID, by, reason)
	if res, ok := args.Get(0).(*payment.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) EditPayment(ctx context.Context, paymentID string, e payment.Edit) (*payment.Result, error) {
	args := m.Called(ctx, paymentID, e)
	if res, ok := args.Get(0).(*payment.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) ApproveAgentRequest(ctx context.Context, req payment.AgentRequest) (*payment.RequestOutcome, error) {
	args := m.Called(ctx, req)
	if out, ok := args.Get(0).(*payment.RequestOutcome); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, p task.CreateParams) (*task.Task, error) {
	args := m.Called(ctx, p)
	if t, ok := args.Get(0).(*task.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, f task.ListFilter) ([]*task.Task, error) {
	args := m.Called(ctx, f)
	if ts, ok := args.Get(0).([]*task.Task); ok {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) ListAgentTasks(ctx context.Context, agentID string, status task.Status) ([]*task.Task, error) {
	args := m.Called(ctx, agentID, status)
	if ts, ok := args.Get(0).([]*task.Task); ok {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) UpdateTaskStatus(ctx context.Context, taskID string, status task.Status, notes string) (*task.Task, error) {
	args := m.Called(ctx, taskID, status, notes)
	if t, ok := args.Get(0).(*task.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *MockTaskService) RepaymentTasksToday(ctx context.Context, agentID string, today time.Time, force bool) ([]task.RepaymentTask, error) {
	args := m.Called(ctx, agentID, today, force)
	if ts, ok := args.Get(0).([]task.RepaymentTask); ok {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) KPIs(ctx context.Context, now time.Time) (report.KPIs, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(report.KPIs), args.Error(1)
}

func (m *MockReportService) AgentKPIs(ctx context.Context, agentID string, now time.Time) (report.AgentKPIs, error) {
	args := m.Called(ctx, agentID, now)
	return args.Get(0).(report.AgentKPIs), args.Error(1)
}

func (m *MockReportService) TeamPerformance(ctx context.Context) ([]report.TeamMember, error) {
	args := m.Called(ctx)
	if ms, ok := args.Get(0).([]report.TeamMember); ok {
		return ms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) OverdueCases(ctx context.Context, now time.Time) ([]report.OverdueCase, error) {
	args := m.Called(ctx, now)
	if cs, ok := args.Get(0).([]report.OverdueCase); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) CollectionRecords(ctx context.Context, f report.CollectionFilter, now time.Time) ([]report.CollectionRecord, error) {
	args := m.Called(ctx, f, now)
	if rs, ok := args.Get(0).([]report.CollectionRecord); ok {
		return rs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) Trends(ctx context.Context, days int, now time.Time) ([]report.TrendPoint, error) {
	args := m.Called(ctx, days, now)
	if ps, ok := args.Get(0).([]report.TrendPoint); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}
