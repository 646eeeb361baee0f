package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/infrastructure/monitoring"
	"microfinance-backend/internal/pkg/apperrors"
	"strings"

	"github.com/jackc/pgx/v5"
)

const loanGoneWarning = "Loan not found - please fix loans manually"

// LoanReconciler recomputes a loan inside a payment transaction.
type LoanReconciler interface {
	ReconcileInTx(ctx context.Context, tx pgx.Tx, loanID string) (loan.Reconciliation, error)
	Notify(ctx context.Context, rec loan.Reconciliation)
}

// EventPublisher is told about committed payment changes.
type EventPublisher interface {
	PaymentRecorded(ctx context.Context, p *Payment) error
	PaymentReversed(ctx context.Context, p *Payment) error
}

type PaymentService interface {
	CreatePayment(ctx context.Context, p CreateParams) (*Payment, error)

	ListPayments(ctx context.Context, f ListFilter) ([]*Payment, error)

	ReversePayment(ctx context.Context, paymentID, by, reason string) (*Result, error)

	EditPayment(ctx context.Context, paymentID string, e Edit) (*Result, error)

	ApproveAgentRequest(ctx context.Context, req AgentRequest) (*RequestOutcome, error)
}

type paymentServiceImpl struct {
	repo            Repository
	reconciler      LoanReconciler
	borrowerService borrower.BorrowerService
	agentService    agent.AgentService
	publisher       EventPublisher
	logger          *slog.Logger
}

func NewPaymentService(r Repository, reconciler LoanReconciler, bs borrower.BorrowerService, as agent.AgentService, publisher EventPublisher, logger *slog.Logger) PaymentService {
	return &paymentServiceImpl{
		repo:            r,
		reconciler:      reconciler,
		borrowerService: bs,
		agentService:    as,
		publisher:       publisher,
		logger:          logger.With("component", "payment_service"),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func invalidAmount(field string) error {
	return fmt.Errorf("%w: %w", apperrors.ErrInvalidPaymentAmount, apperrors.NewValidationError(field, "amount must be positive"))
}

func (s *paymentServiceImpl) validateCreate(ctx context.Context, p *CreateParams) error {
	p.BorrowerID = strings.TrimSpace(p.BorrowerID)
	p.AgentID = strings.TrimSpace(p.AgentID)
	if p.BorrowerID == "" || p.AgentID == "" || p.Amount.IsZero() {
		return apperrors.NewValidationError("", "Borrower ID, Agent ID, and amount are required")
	}
	if p.Amount.IsNegative() {
		return invalidAmount("amount")
	}
	if p.Mode == "" {
		p.Mode = ModeCash
	}
	if !p.Mode.Valid() {
		return apperrors.NewValidationError("paymentMode", fmt.Sprintf("unknown payment mode %q", p.Mode))
	}

	if _, err := s.borrowerService.FindBorrower(ctx, p.BorrowerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("borrowerId", "Borrower not found")
		}
		return err
	}
	if _, err := s.agentService.GetAgent(ctx, p.AgentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("agentId", "Agent not found")
		}
		return err
	}
	return nil
}

// CreatePayment stores the payment and reconciles its loan in one
// transaction. The loan row is locked first so concurrent collections on
// the same loan apply one after the other.
func (s *paymentServiceImpl) CreatePayment(ctx context.Context, p CreateParams) (_ *Payment, err error) {
	if err = s.validateCreate(ctx, &p); err != nil {
		monitoring.RecordPayment("failure_validation")
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("Failed to begin transaction", "error", err)
		monitoring.RecordPayment("failure_internal")
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrDatabase, err)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic occurred during payment processing", "error", r)
			_ = s.repo.RollbackTx(ctx, tx)
			monitoring.RecordPayment("failure_internal")
			panic(r)
		} else if err != nil {
			status := "failure_internal"
			if errors.Is(err, apperrors.ErrValidation) {
				status = "failure_no_loan"
			}
			monitoring.RecordPayment(status)
			s.logger.Warn("Rolling back payment transaction", "error", err)
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	loanID, err := s.repo.ResolveLoanForUpdate(ctx, tx, p.BorrowerID, p.LoanID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewValidationError("loanId", "No active loan found for this borrower")
		}
		return nil, fmt.Errorf("%w: could not resolve loan: %w", apperrors.ErrDatabase, err)
	}

	created, err := s.repo.InsertPaymentInTx(ctx, tx, &Payment{
		LoanID:      loanID,
		BorrowerID:  p.BorrowerID,
		AgentID:     p.AgentID,
		Amount:      p.Amount,
		Mode:        p.Mode,
		Location:    p.Location,
		ReceiptName: p.ReceiptName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not insert payment: %w", apperrors.ErrDatabase, err)
	}

	rec, err := s.reconciler.ReconcileInTx(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.Error("Failed to commit payment", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordPayment("success")
	s.logger.Info("Payment recorded",
		"paymentID", created.ID,
		"loanID", loanID,
		"amount", created.Amount.String(),
		"remainingAmount", rec.Loan.RemainingAmount.String(),
		"loanStatus", rec.Loan.Status,
	)
	s.reconciler.Notify(ctx, rec)
	if perr := s.publisher.PaymentRecorded(ctx, created); perr != nil {
		s.logger.Warn("Failed to publish payment event", "paymentID", created.ID, "error", perr)
	}
	return created, nil
}

func (s *paymentServiceImpl) ListPayments(ctx context.Context, f ListFilter) ([]*Payment, error) {
	payments, err := s.repo.ListPayments(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list payments", "error", err)
		return nil, fmt.Errorf("%w: failed to list payments: %w", apperrors.ErrDatabase, err)
	}
	return payments, nil
}

// withPaymentTx locks the payment, runs mutate and reconciles the payment's
// loan when mutate reports a balance change. A vanished loan only warns.
func (s *paymentServiceImpl) withPaymentTx(ctx context.Context, paymentID string, mutate func(tx pgx.Tx, current *Payment) (*Payment, bool, error)) (_ *Result, rec loan.Reconciliation, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, rec, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	current, err := s.repo.GetPaymentForUpdate(ctx, tx, paymentID)
	if err != nil {
		if isNotFound(err) {
			return nil, rec, apperrors.NotFound("payment", paymentID)
		}
		return nil, rec, fmt.Errorf("%w: could not load payment %s: %w", apperrors.ErrDatabase, paymentID, err)
	}

	updated, rebalance, err := mutate(tx, current)
	if err != nil {
		return nil, rec, err
	}

	res := &Result{Payment: updated}
	if rebalance {
		rec, err = s.reconciler.ReconcileInTx(ctx, tx, updated.LoanID)
		switch {
		case err == nil:
			res.Loan = rec.Loan
		case errors.Is(err, apperrors.ErrNotFound):
			s.logger.Warn("Loan not found for payment", "paymentID", paymentID, "loanID", updated.LoanID)
			res.Warning = loanGoneWarning
			err = nil
		default:
			return nil, rec, err
		}
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, rec, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrDatabase, err)
	}
	return res, rec, nil
}

func (s *paymentServiceImpl) ReversePayment(ctx context.Context, paymentID, by, reason string) (*Result, error) {
	if by == "" {
		by = DefaultReverser
	}

	res, rec, err := s.withPaymentTx(ctx, paymentID, func(tx pgx.Tx, current *Payment) (*Payment, bool, error) {
		if current.Reversed {
			return nil, false, fmt.Errorf("%w: payment %s", apperrors.ErrAlreadyReversed, paymentID)
		}
		reversed, err := s.repo.MarkReversedInTx(ctx, tx, paymentID, by, reason)
		if err != nil {
			return nil, false, fmt.Errorf("%w: could not reverse payment %s: %w", apperrors.ErrDatabase, paymentID, err)
		}
		return reversed, true, nil
	})
	if err != nil {
		status := "failure_internal"
		switch {
		case errors.Is(err, apperrors.ErrAlreadyReversed):
			status = "failure_already_reversed"
		case errors.Is(err, apperrors.ErrNotFound):
			status = "failure_not_found"
		}
		monitoring.RecordReversal(status)
		s.logger.Warn("Payment reversal failed", "paymentID", paymentID, "error", err)
		return nil, err
	}

	monitoring.RecordReversal("success")
	s.logger.Info("Payment reversed", "paymentID", paymentID, "by", by, "amount", res.Payment.Amount.String())
	s.reconciler.Notify(ctx, rec)
	if perr := s.publisher.PaymentReversed(ctx, res.Payment); perr != nil {
		s.logger.Warn("Failed to publish reversal event", "paymentID", paymentID, "error", perr)
	}
	return res, nil
}

func (s *paymentServiceImpl) EditPayment(ctx context.Context, paymentID string, e Edit) (*Result, error) {
	if e.Amount != nil && !e.Amount.IsPositive() {
		return nil, invalidAmount("newAmount")
	}
	if e.Mode != nil && !e.Mode.Valid() {
		return nil, apperrors.NewValidationError("newPaymentMode", fmt.Sprintf("unknown payment mode %q", *e.Mode))
	}

	res, rec, err := s.withPaymentTx(ctx, paymentID, func(tx pgx.Tx, current *Payment) (*Payment, bool, error) {
		updated, err := s.repo.UpdatePaymentInTx(ctx, tx, paymentID, e)
		if err != nil {
			return nil, false, fmt.Errorf("%w: could not edit payment %s: %w", apperrors.ErrDatabase, paymentID, err)
		}
		return updated, e.Amount != nil && !e.Amount.Equal(current.Amount), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment edited", "paymentID", paymentID, "rebalanced", res.Loan != nil)
	s.reconciler.Notify(ctx, rec)
	return res, nil
}

// ApproveAgentRequest applies an agent's reversal or edit request. A request
// naming an unknown payment is acknowledged with a warning.
func (s *paymentServiceImpl) ApproveAgentRequest(ctx context.Context, req AgentRequest) (*RequestOutcome, error) {
	if req.PaymentID == "" || (req.Type != RequestReversal && req.Type != RequestEdit) {
		return nil, apperrors.NewValidationError("requestType", "Invalid request type")
	}

	out := &RequestOutcome{RequestID: req.ID, PaymentID: req.PaymentID}

	var (
		res *Result
		err error
	)
	if req.Type == RequestReversal {
		reason := req.Reason
		if reason == "" {
			reason = DefaultReversalReason
		}
		res, err = s.ReversePayment(ctx, req.PaymentID, DefaultReverser, reason)
	} else {
		res, err = s.EditPayment(ctx, req.PaymentID, req.Edit)
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Agent request names unknown payment", "requestID", req.ID, "paymentID", req.PaymentID)
		if req.Type == RequestReversal {
			out.Message = "Payment reversal approved (payment not found)"
			out.Warning = "No payment was reversed"
		} else {
			out.Message = "Payment edit approved (payment not found)"
			out.Warning = "No payment was edited"
		}
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	out.Payment = res.Payment
	out.Amount = res.Payment.Amount
	out.Warning = res.Warning
	if req.Type == RequestReversal {
		out.Message = "Payment reversal approved successfully"
	} else {
		out.Message = "Payment edit approved successfully"
	}
	return out, nil
}
