package payment

import (
	"microfinance-backend/internal/domain/loan"
	"time"

	"github.com/shopspring/decimal"
)

type Mode string

const (
	ModeCash   Mode = "cash"
	ModeUPI    Mode = "upi"
	ModeCard   Mode = "card"
	ModeCheque Mode = "cheque"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeCash, ModeUPI, ModeCard, ModeCheque:
		return true
	}
	return false
}

const (
	DefaultReverser        = "manager"
	DefaultReversalReason  = "Approved by manager"
	DefaultRejectionReason = "Rejected by manager"
)

type Location struct {
	Latitude  *float64
	Longitude *float64
}

// Payment is never deleted on reversal; Reversed excludes it from balances.
type Payment struct {
	ID             string
	LoanID         string
	BorrowerID     string
	AgentID        string
	Amount         decimal.Decimal
	Mode           Mode
	Location       *Location
	ReceiptName    string
	Reversed       bool
	ReversedAt     *time.Time
	ReversedBy     string
	ReversalReason string
	CreatedAt      time.Time
}

type CreateParams struct {
	BorrowerID  string
	LoanID      string
	AgentID     string
	Amount      decimal.Decimal
	Mode        Mode
	Location    *Location
	ReceiptName string
}

type ListFilter struct {
	From            *time.Time
	To              *time.Time
	AgentID         string
	IncludeReversed bool
}

// Edit carries the fields an approved edit request may change.
type Edit struct {
	Amount      *decimal.Decimal
	Mode        *Mode
	Location    *Location
	ReceiptName *string
}

// Result is the outcome of a reversal or an edit. Loan is nil when the
// loan no longer exists, in which case Warning says so.
type Result struct {
	Payment *Payment
	Loan    *loan.Loan
	Warning string
}

// DayBounds expands two calendar days into [start 00:00, end 23:59:59.999].
func DayBounds(start, end *time.Time) (from, to *time.Time) {
	if start != nil {
		s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		from = &s
	}
	if end != nil {
		e := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(999*time.Millisecond), end.Location())
		to = &e
	}
	return from, to
}
