package loan

import (
	"fmt"
	"microfinance-backend/internal/pkg/apperrors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
	StatusPaid      Status = "paid"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusApproved, StatusRejected, StatusClosed, StatusCancelled, StatusPaid:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

type Loan struct {
	ID                  string
	BorrowerID          string
	Amount              decimal.Decimal
	TotalPaid           decimal.Decimal
	RemainingAmount     decimal.Decimal
	InterestRatePercent decimal.NullDecimal
	TenureMonths        int
	Frequency           Frequency
	Purpose             string
	AssignedAgent       string
	Status              Status
	ManagerComment      string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Borrower is only populated by listings that join the borrower row.
	Borrower *BorrowerContact
}

// BorrowerContact is the slice of a borrower that loan views embed.
type BorrowerContact struct {
	ID        string
	Name      string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
	City      string
	State     string
	Pincode   string
}

// DisplayName falls back to first/last name and then to "Borrower".
func (b *BorrowerContact) DisplayName() string {
	if b == nil {
		return "Borrower"
	}
	if b.Name != "" {
		return b.Name
	}
	full := b.FirstName
	if b.LastName != "" {
		if full != "" {
			full += " "
		}
		full += b.LastName
	}
	if full != "" {
		return full
	}
	return "Borrower"
}

type NewLoanParams struct {
	BorrowerID          string
	Amount              decimal.Decimal
	InterestRatePercent decimal.NullDecimal
	TenureMonths        int
	Frequency           Frequency
	Purpose             string
	AssignedAgent       string
	Status              Status
}

// NewLoan builds an unsaved loan with an untouched balance.
func NewLoan(p NewLoanParams) (*Loan, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrInvalidArgument)
	}
	if p.TenureMonths < 0 {
		return nil, fmt.Errorf("%w: tenure months cannot be negative", apperrors.ErrInvalidArgument)
	}
	if p.Frequency == "" {
		p.Frequency = FrequencyMonthly
	}
	if !p.Frequency.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %q", apperrors.ErrInvalidArgument, p.Frequency)
	}
	if p.Status == "" {
		p.Status = StatusPending
	}

	return &Loan{
		BorrowerID:          p.BorrowerID,
		Amount:              p.Amount,
		TotalPaid:           decimal.Zero,
		RemainingAmount:     p.Amount,
		InterestRatePercent: p.InterestRatePercent,
		TenureMonths:        p.TenureMonths,
		Frequency:           p.Frequency,
		Purpose:             p.Purpose,
		AssignedAgent:       p.AssignedAgent,
		Status:              p.Status,
	}, nil
}

// DecisionStatus maps a manager decision onto approved or rejected. Paid and
// terminal loans cannot be re-decided, which keeps the paid invariant intact.
func DecisionStatus(current Status, approved bool) (Status, error) {
	switch current {
	case StatusPaid, StatusCancelled, StatusClosed:
		return "", fmt.Errorf("%w: loan is %s", apperrors.ErrInvalidTransition, current)
	}
	if approved {
		return StatusApproved, nil
	}
	return StatusRejected, nil
}
