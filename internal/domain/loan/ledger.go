package loan

import "github.com/shopspring/decimal"

// LedgerEntry is the part of a payment the balance depends on.
type LedgerEntry struct {
	Amount   decimal.Decimal
	Reversed bool
}

type Balance struct {
	TotalPaid       decimal.Decimal
	RemainingAmount decimal.Decimal
	IsFullyPaid     bool
}

// Reconcile sums the non-reversed entries and clamps the total to the
// principal, so the remaining amount never goes below zero.
func Reconcile(principal decimal.Decimal, entries []LedgerEntry) Balance {
	total := decimal.Zero
	for _, e := range entries {
		if e.Reversed {
			continue
		}
		total = total.Add(e.Amount)
	}

	total = decimal.Min(total, principal)
	remaining := principal.Sub(total)

	return Balance{
		TotalPaid:       total,
		RemainingAmount: remaining,
		IsFullyPaid:     !remaining.IsPositive(),
	}
}

// NextStatus applies a balance to the loan's current status. Only the
// paid/active pair moves automatically; administrative states stay put.
func NextStatus(current Status, b Balance) Status {
	if b.IsFullyPaid {
		return StatusPaid
	}
	if current == StatusPaid {
		return StatusActive
	}
	return current
}
