package borrower

import (
	"microfinance-backend/internal/domain/loan"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusSuspended
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const (
	DefaultDecider         = "manager"
	DefaultRejectionReason = "Rejected by manager"
)

type Borrower struct {
	ID              string
	Name            string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	DateOfBirth     *time.Time
	Address         string
	City            string
	State           string
	Pincode         string
	AssignedAgent   string
	Status          Status
	ApprovalStatus  ApprovalStatus
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time

	Loans []*loan.Loan
}

// DeriveName picks the first non-empty of the explicit name, the joined
// first and last names, either part alone and the phone number.
func DeriveName(name, firstName, lastName, phone string) string {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	joined := strings.TrimSpace(firstName + " " + lastName)
	for _, c := range []string{strings.TrimSpace(name), joined, firstName, lastName, strings.TrimSpace(phone)} {
		if c != "" {
			return c
		}
	}
	return "Borrower"
}

// LoanTerms are the optional loan details sent with a new borrower.
type LoanTerms struct {
	Amount              decimal.Decimal
	InterestRatePercent decimal.NullDecimal
	TenureMonths        int
	Frequency           loan.Frequency
	Purpose             string
}

type CreateParams struct {
	Name          string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	DateOfBirth   *time.Time
	Address       string
	City          string
	State         string
	Pincode       string
	AssignedAgent string
	Loan          *LoanTerms
}

// Update holds the whitelisted mutable fields. Nil means untouched.
type Update struct {
	Name          *string
	FirstName     *string
	LastName      *string
	Email         *string
	Phone         *string
	DateOfBirth   *time.Time
	Address       *string
	City          *string
	State         *string
	Pincode       *string
	AssignedAgent *string
	Status        *Status
}

func (u Update) Empty() bool {
	return u.Name == nil && u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.Phone == nil && u.DateOfBirth == nil && u.Address == nil && u.City == nil &&
		u.State == nil && u.Pincode == nil && u.AssignedAgent == nil && u.Status == nil
}

// Approval is a pending borrower with one of its loans, if any.
type Approval struct {
	Borrower *Borrower
	Loan     *loan.Loan
}

// loanStatusesLockedFromApproval are never overwritten by a borrower decision.
var loanStatusesLockedFromApproval = []loan.Status{loan.StatusPaid, loan.StatusCancelled, loan.StatusClosed}
