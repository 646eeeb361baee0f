package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Installment is a computed due date. It is never stored.
type Installment struct {
	ID       string
	LoanID   string
	Sequence int
	Total    int
	DueDate  time.Time
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// AddMonthsClamped advances t by whole calendar months, keeping the day of
// month unless the target month is shorter. The result is at midnight.
func AddMonthsClamped(t time.Time, months int) time.Time {
	loc := t.Location()
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, loc)
	day := min(t.Day(), daysIn(first.Year(), first.Month(), loc))
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

func schedulable(l *Loan) bool {
	return l != nil && l.Frequency == FrequencyMonthly && l.TenureMonths > 0
}

func newInstallment(l *Loan, seq int, due time.Time) Installment {
	return Installment{
		ID:       fmt.Sprintf("%s-%s", l.ID, due.Format(time.DateOnly)),
		LoanID:   l.ID,
		Sequence: seq,
		Total:    l.TenureMonths,
		DueDate:  due,
	}
}

// Schedule returns every due date of a monthly loan, anchored on its
// creation day in loc.
func Schedule(l *Loan, loc *time.Location) []time.Time {
	if !schedulable(l) {
		return nil
	}
	anchor := midnight(l.CreatedAt, loc)
	dates := make([]time.Time, 0, l.TenureMonths)
	for i := 1; i <= l.TenureMonths; i++ {
		dates = append(dates, AddMonthsClamped(anchor, i))
	}
	return dates
}

// DueInstallments returns the first installment falling in
// [windowStart, windowEnd). The window's location is used as the anchor's
// location. A loan surfaces at most once per query.
func DueInstallments(l *Loan, windowStart, windowEnd time.Time) []Installment {
	for i, due := range Schedule(l, windowStart.Location()) {
		if !due.Before(windowStart) && due.Before(windowEnd) {
			return []Installment{newInstallment(l, i+1, due)}
		}
	}
	return []Installment{}
}

// FirstInstallment returns installment 1 regardless of date.
func FirstInstallment(l *Loan, loc *time.Location) []Installment {
	dates := Schedule(l, loc)
	if len(dates) == 0 {
		return []Installment{}
	}
	return []Installment{newInstallment(l, 1, dates[0])}
}

// OverdueInstallment finds the earliest installment not yet covered by the
// loan's total paid and reports it when its due date is before asOf's day.
func OverdueInstallment(l *Loan, asOf time.Time) (Installment, bool) {
	dates := Schedule(l, asOf.Location())
	if len(dates) == 0 || !l.Amount.IsPositive() {
		return Installment{}, false
	}

	emi := l.Amount.Div(decimal.NewFromInt(int64(l.TenureMonths)))
	covered := int(l.TotalPaid.Div(emi).Floor().IntPart())
	if covered >= len(dates) {
		return Installment{}, false
	}

	due := dates[covered]
	if !due.Before(midnight(asOf, asOf.Location())) {
		return Installment{}, false
	}
	return newInstallment(l, covered+1, due), true
}

// DaysPastDue counts calendar days between due and asOf's day.
func DaysPastDue(due, asOf time.Time) int {
	loc := asOf.Location()
	a, d := midnight(asOf, loc), midnight(due, loc)
	utcA := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	utcD := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(utcA.Sub(utcD).Hours() / 24)
}
