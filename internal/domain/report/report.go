package report

import (
	"fmt"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"time"

	"github.com/shopspring/decimal"
)

// MinimumTarget is the floor of an agent's collection target.
var MinimumTarget = decimal.NewFromInt(100000)

var targetShare = decimal.RequireFromString("0.8")

type KPIs struct {
	TotalBorrowers      int64
	ActiveLoans         int64
	TotalDisbursed      decimal.Decimal
	RepaymentsThisMonth decimal.Decimal
}

// AgentCounts are the raw figures behind an agent's dashboard.
type AgentCounts struct {
	TodayCollections   decimal.Decimal
	TodayPaymentsCount int64
	ActiveBorrowers    int64
	PendingVisits      int64
	MonthPayments      int64
	MonthLoans         int64
}

type AgentKPIs struct {
	TodayCollections   decimal.Decimal
	TodayPaymentsCount int64
	ActiveBorrowers    int64
	PendingVisits      int64
	SuccessRate        int64
}

// AgentTotals are lifetime per-agent sums.
type AgentTotals struct {
	ID             string
	AgentID        string
	Name           string
	Status         string
	Collected      decimal.Decimal
	TotalDisbursed decimal.Decimal
	Borrowers      int64
}

type TeamMember struct {
	AgentTotals
	Target      decimal.Decimal
	SuccessRate int64
}

// OverdueCandidate is an active loan with the contact details an overdue
// case needs.
type OverdueCandidate struct {
	Loan          *loan.Loan
	AgentName     string
	LastPaymentAt *time.Time
}

type OverdueCase struct {
	Borrower      string
	Agent         string
	AgentID       string
	Amount        decimal.Decimal
	DaysPastDue   int
	LastContact   string
	LoanID        string
	BorrowerPhone string
	DueDate       time.Time
}

type CollectionFilter struct {
	From    *time.Time
	To      *time.Time
	AgentID string

	// Raw values echoed back to the caller.
	StartDate string
	EndDate   string
}

// CollectionWindow fixes the periods a collection report sums over.
type CollectionWindow struct {
	From       *time.Time
	To         *time.Time
	AgentID    string
	DayStart   time.Time
	DayEnd     time.Time
	MonthStart time.Time
	MonthEnd   time.Time
}

type CollectionTotals struct {
	AgentID           string
	AgentName         string
	Status            string
	TotalCollections  decimal.Decimal
	TodayCollections  decimal.Decimal
	MonthCollections  decimal.Decimal
	TotalPayments     int64
	TodayPayments     int64
	MonthPayments     int64
	AssignedBorrowers int64
}

type CollectionRecord struct {
	CollectionTotals
	RecentPayments []*payment.Payment
	Filter         CollectionFilter
}

// TrendCounts are per-day aggregates keyed by YYYY-MM-DD.
type TrendCounts struct {
	Collections map[string]decimal.Decimal
	Loans       map[string]int64
	Borrowers   map[string]int64
}

type TrendPoint struct {
	Date        string
	Collections decimal.Decimal
	Loans       int64
	Borrowers   int64
}

const recentPaymentsLimit = 10

// percent returns round(part / whole * 100), or 0 for an empty whole.
func percent(part, whole decimal.Decimal) int64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func target(disbursed decimal.Decimal) decimal.Decimal {
	return decimal.Max(disbursed.Mul(targetShare), MinimumTarget)
}

func lastContact(last *time.Time, now time.Time) string {
	if last == nil {
		return "No recent contact"
	}
	days := int(now.Sub(*last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("%d days ago", days)
}
