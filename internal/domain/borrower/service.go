package borrower

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type BorrowerService interface {
	CreateBorrower(ctx context.Context, p CreateParams) (*Borrower, error)

	GetBorrower(ctx context.Context, borrowerID string) (*Borrower, error)

	// FindBorrower returns the borrower without its loans.
	FindBorrower(ctx context.Context, borrowerID string) (*Borrower, error)

	ListBorrowers(ctx context.Context, includeLoans bool) ([]*Borrower, error)

	UpdateBorrower(ctx context.Context, borrowerID string, u Update) (*Borrower, error)

	DeleteBorrower(ctx context.Context, borrowerID string) error

	ListPendingApprovals(ctx context.Context) ([]Approval, error)

	ApproveBorrower(ctx context.Context, borrowerID, approvedBy string) (*Borrower, error)

	RejectBorrower(ctx context.Context, borrowerID, rejectedBy, reason string) (*Borrower, error)

	ListAgentBorrowers(ctx context.Context, agentID string) ([]*Borrower, error)
}

type borrowerServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewBorrowerService(r Repository, logger *slog.Logger) BorrowerService {
	return &borrowerServiceImpl{repo: r, logger: logger.With("component", "borrower_service")}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func (s *borrowerServiceImpl) notFoundOr(err error, borrowerID, action string) error {
	if isNotFound(err) {
		s.logger.Warn("Borrower not found", "borrowerID", borrowerID)
		return apperrors.NotFound("borrower", borrowerID)
	}
	s.logger.Error("Failed to "+action, "borrowerID", borrowerID, "error", err)
	return fmt.Errorf("%w: failed to %s %s: %w", apperrors.ErrDatabase, action, borrowerID, err)
}

func (s *borrowerServiceImpl) CreateBorrower(ctx context.Context, p CreateParams) (*Borrower, error) {
	b := &Borrower{
		Name:           DeriveName(p.Name, p.FirstName, p.LastName, p.Phone),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Phone:          p.Phone,
		DateOfBirth:    p.DateOfBirth,
		Address:        p.Address,
		City:           p.City,
		State:          p.State,
		Pincode:        p.Pincode,
		AssignedAgent:  p.AssignedAgent,
		Status:         StatusActive,
		ApprovalStatus: ApprovalPending,
	}

	var first *loan.Loan
	if p.Loan != nil && p.Loan.Amount.IsPositive() {
		l, err := loan.NewLoan(loan.NewLoanParams{
			Amount:              p.Loan.Amount,
			InterestRatePercent: p.Loan.InterestRatePercent,
			TenureMonths:        p.Loan.TenureMonths,
			Frequency:           p.Loan.Frequency,
			Purpose:             p.Loan.Purpose,
			AssignedAgent:       p.AssignedAgent,
			Status:              loan.StatusActive,
		})
		if err != nil {
			return nil, err
		}
		first = l
	}

	created, err := s.repo.CreateBorrower(ctx, b, first)
	if err != nil {
		s.logger.Error("Failed to create borrower", "error", err)
		return nil, fmt.Errorf("%w: failed to create borrower: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Borrower created", "borrowerID", created.ID, "withLoan", first != nil)
	return created, nil
}

func (s *borrowerServiceImpl) FindBorrower(ctx context.Context, borrowerID string) (*Borrower, error) {
	b, err := s.repo.GetBorrowerByID(ctx, borrowerID)
	if err != nil {
		return nil, s.notFoundOr(err, borrowerID, "get borrower")
	}
	return b, nil
}

func (s *borrowerServiceImpl) GetBorrower(ctx context.Context, borrowerID string) (*Borrower, error) {
	b, err := s.FindBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	byBorrower, err := s.repo.ListLoansByBorrowerIDs(ctx, []string{borrowerID})
	if err != nil {
		return nil, s.notFoundOr(err, borrowerID, "list loans of borrower")
	}
	b.Loans = nonNilLoans(byBorrower[borrowerID])
	return b, nil
}

func (s *borrowerServiceImpl) ListBorrowers(ctx context.Context, includeLoans bool) ([]*Borrower, error) {
	borrowers, err := s.repo.ListBorrowers(ctx)
	if err != nil {
		s.logger.Error("Failed to list borrowers", "error", err)
		return nil, fmt.Errorf("%w: failed to list borrowers: %w", apperrors.ErrDatabase, err)
	}
	if !includeLoans || len(borrowers) == 0 {
		return borrowers, nil
	}

	byBorrower, err := s.repo.ListLoansByBorrowerIDs(ctx, ids(borrowers))
	if err != nil {
		s.logger.Error("Failed to list borrower loans", "error", err)
		return nil, fmt.Errorf("%w: failed to list borrower loans: %w", apperrors.ErrDatabase, err)
	}
	for _, b := range borrowers {
		b.Loans = nonNilLoans(byBorrower[b.ID])
	}
	return borrowers, nil
}

func (s *borrowerServiceImpl) UpdateBorrower(ctx context.Context, borrowerID string, u Update) (*Borrower, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown borrower status %q", *u.Status))
	}
	if u.Empty() {
		return s.FindBorrower(ctx, borrowerID)
	}

	updated, err := s.repo.UpdateBorrower(ctx, borrowerID, u)
	if err != nil {
		return nil, s.notFoundOr(err, borrowerID, "update borrower")
	}
	s.logger.Info("Borrower updated", "borrowerID", borrowerID)
	return updated, nil
}

func (s *borrowerServiceImpl) DeleteBorrower(ctx context.Context, borrowerID string) error {
	if err := s.repo.DeleteBorrowerCascade(ctx, borrowerID); err != nil {
		return s.notFoundOr(err, borrowerID, "delete borrower")
	}
	s.logger.Info("Borrower deleted with loans and payments", "borrowerID", borrowerID)
	return nil
}

func (s *borrowerServiceImpl) ListPendingApprovals(ctx context.Context) ([]Approval, error) {
	pending, err := s.repo.ListBorrowersByApproval(ctx, ApprovalPending)
	if err != nil {
		s.logger.Error("Failed to list pending borrowers", "error", err)
		return nil, fmt.Errorf("%w: failed to list pending borrowers: %w", apperrors.ErrDatabase, err)
	}

	approvals := make([]Approval, 0, len(pending))
	if len(pending) == 0 {
		return approvals, nil
	}

	byBorrower, err := s.repo.ListLoansByBorrowerIDs(ctx, ids(pending))
	if err != nil {
		s.logger.Error("Failed to list loans of pending borrowers", "error", err)
		return nil, fmt.Errorf("%w: failed to list loans of pending borrowers: %w", apperrors.ErrDatabase, err)
	}
	for _, b := range pending {
		a := Approval{Borrower: b}
		if loans := byBorrower[b.ID]; len(loans) > 0 {
			a.Loan = loans[0]
		}
		approvals = append(approvals, a)
	}
	return approvals, nil
}

func (s *borrowerServiceImpl) ApproveBorrower(ctx context.Context, borrowerID, approvedBy string) (*Borrower, error) {
	if approvedBy == "" {
		approvedBy = DefaultDecider
	}
	return s.decide(ctx, borrowerID, ApprovalApproved, approvedBy, "", loan.StatusActive)
}

func (s *borrowerServiceImpl) RejectBorrower(ctx context.Context, borrowerID, rejectedBy, reason string) (*Borrower, error) {
	if rejectedBy == "" {
		rejectedBy = DefaultDecider
	}
	if reason == "" {
		reason = DefaultRejectionReason
	}
	return s.decide(ctx, borrowerID, ApprovalRejected, rejectedBy, reason, loan.StatusRejected)
}

func (s *borrowerServiceImpl) decide(ctx context.Context, borrowerID string, approval ApprovalStatus, by, reason string, loanStatus loan.Status) (_ *Borrower, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	current, err := s.repo.GetBorrowerForUpdate(ctx, tx, borrowerID)
	if err != nil {
		return nil, s.notFoundOr(err, borrowerID, "lock borrower")
	}
	if current.ApprovalStatus != ApprovalPending {
		return nil, apperrors.NewValidationError("approvalStatus", fmt.Sprintf("Borrower is already %s", current.ApprovalStatus))
	}

	updated, err := s.repo.SetApprovalInTx(ctx, tx, borrowerID, approval, by, reason)
	if err != nil {
		return nil, s.notFoundOr(err, borrowerID, "update borrower approval")
	}

	n, err := s.repo.SetLoanStatusesInTx(ctx, tx, borrowerID, loanStatus, loanStatusesLockedFromApproval)
	if err != nil {
		return nil, s.notFoundOr(err, borrowerID, "update borrower loans")
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Borrower decided", "borrowerID", borrowerID, "approval", approval, "by", by, "loansUpdated", n)
	return updated, nil
}

func (s *borrowerServiceImpl) ListAgentBorrowers(ctx context.Context, agentID string) ([]*Borrower, error) {
	borrowers, err := s.repo.ListBorrowersByAgent(ctx, agentID, ApprovalApproved)
	if err != nil {
		s.logger.Error("Failed to list agent borrowers", "agentID", agentID, "error", err)
		return nil, fmt.Errorf("%w: failed to list borrowers of agent %s: %w", apperrors.ErrDatabase, agentID, err)
	}
	s.logger.Debug("Listed approved borrowers for agent", "agentID", agentID, "count", len(borrowers))
	return borrowers, nil
}

func ids(borrowers []*Borrower) []string {
	out := make([]string, len(borrowers))
	for i, b := range borrowers {
		out[i] = b.ID
	}
	return out
}

func nonNilLoans(loans []*loan.Loan) []*loan.Loan {
	if loans == nil {
		return []*loan.Loan{}
	}
	return loans
}
