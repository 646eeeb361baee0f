package task

import (
	"fmt"
	"microfinance-backend/internal/domain/loan"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// RepaymentTask is a collection visit derived from a loan's schedule. It
// is computed per request and never stored.
type RepaymentTask struct {
	ID              string
	AgentID         string
	LoanID          string
	BorrowerID      string
	Title           string
	Description     string
	DueDate         time.Time
	Status          Status
	CreatedAt       time.Time
	LocationAddress string
	LocationURL     string
}

var (
	indianLocale  = language.MustParse("en-IN")
	amountPrinter = message.NewPrinter(indianLocale)
	// Lakh grouping: 10,00,000.
	indianGrouping = number.PatternOverrides(map[string]string{"en-IN": "#,##,##0.###"})
)

// formatAmount groups the whole rupees and appends up to two fraction
// digits taken from the decimal itself.
func formatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	s := amountPrinter.Sprint(number.Decimal(whole.IntPart(), indianGrouping))
	if frac := d.Sub(whole).Abs(); !frac.IsZero() {
		s += strings.TrimPrefix(frac.String(), "0")
	}
	return s
}

func joinAddress(c *loan.BorrowerContact) string {
	if c == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Address, c.City, c.State, c.Pincode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// mapsURL escapes address as a single query value, spaces as %20.
func mapsURL(address string) string {
	return "https://maps.google.com?q=" + strings.ReplaceAll(url.QueryEscape(address), "+", "%20")
}

// NewRepaymentTask renders an installment as an agent task.
func NewRepaymentTask(agentID string, l *loan.Loan, inst loan.Installment, currency string, today time.Time) RepaymentTask {
	address := joinAddress(l.Borrower)
	t := RepaymentTask{
		ID:              inst.ID,
		AgentID:         agentID,
		LoanID:          l.ID,
		BorrowerID:      l.BorrowerID,
		Title:           "Collect EMI from " + l.Borrower.DisplayName(),
		Description:     fmt.Sprintf("Loan: %s%s • EMI %d/%d", currency, formatAmount(l.Amount), inst.Sequence, inst.Total),
		DueDate:         inst.DueDate,
		Status:          StatusPending,
		CreatedAt:       today,
		LocationAddress: address,
	}
	if address != "" {
		t.LocationURL = mapsURL(address)
	}
	return t
}
