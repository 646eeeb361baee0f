package report

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTrendDays bounds the trends window.
const MaxTrendDays = 365

type ReportService interface {
	KPIs(ctx context.Context, now time.Time) (KPIs, error)

	AgentKPIs(ctx context.Context, agentID string, now time.Time) (AgentKPIs, error)

	TeamPerformance(ctx context.Context) ([]TeamMember, error)

	OverdueCases(ctx context.Context, now time.Time) ([]OverdueCase, error)

	CollectionRecords(ctx context.Context, f CollectionFilter, now time.Time) ([]CollectionRecord, error)

	Trends(ctx context.Context, days int, now time.Time) ([]TrendPoint, error)
}

type reportServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewReportService(r Repository, logger *slog.Logger) ReportService {
	return &reportServiceImpl{repo: r, logger: logger.With("component", "report_service")}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func dbErr(err error, what string) error {
	return fmt.Errorf("%w: failed to %s: %w", apperrors.ErrDatabase, what, err)
}

func (s *reportServiceImpl) KPIs(ctx context.Context, now time.Time) (KPIs, error) {
	k, err := s.repo.OwnerKPIs(ctx, startOfMonth(now))
	if err != nil {
		s.logger.Error("Failed to load KPIs", "error", err)
		return KPIs{}, dbErr(err, "load KPIs")
	}
	return k, nil
}

func (s *reportServiceImpl) AgentKPIs(ctx context.Context, agentID string, now time.Time) (AgentKPIs, error) {
	day := startOfDay(now)
	month := startOfMonth(now)

	c, err := s.repo.AgentCounts(ctx, agentID, day, day.AddDate(0, 0, 1), month, month.AddDate(0, 1, 0))
	if err != nil {
		s.logger.Error("Failed to load agent KPIs", "agentID", agentID, "error", err)
		return AgentKPIs{}, dbErr(err, "load agent KPIs")
	}

	return AgentKPIs{
		TodayCollections:   c.TodayCollections,
		TodayPaymentsCount: c.TodayPaymentsCount,
		ActiveBorrowers:    c.ActiveBorrowers,
		PendingVisits:      c.PendingVisits,
		SuccessRate:        percent(decimal.NewFromInt(c.MonthPayments), decimal.NewFromInt(c.MonthLoans)),
	}, nil
}

func (s *reportServiceImpl) TeamPerformance(ctx context.Context) ([]TeamMember, error) {
	totals, err := s.repo.ListAgentTotals(ctx)
	if err != nil {
		s.logger.Error("Failed to load team performance", "error", err)
		return nil, dbErr(err, "load team performance")
	}

	team := make([]TeamMember, 0, len(totals))
	for _, t := range totals {
		if t.Status == "" {
			t.Status = "active"
		}
		team = append(team, TeamMember{
			AgentTotals: t,
			Target:      target(t.TotalDisbursed),
			SuccessRate: min(percent(t.Collected, t.TotalDisbursed), 100),
		})
	}
	return team, nil
}

// OverdueCases reports active loans whose earliest unpaid installment fell
// due before today, most overdue first.
func (s *reportServiceImpl) OverdueCases(ctx context.Context, now time.Time) ([]OverdueCase, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx)
	if err != nil {
		s.logger.Error("Failed to load overdue candidates", "error", err)
		return nil, dbErr(err, "load overdue cases")
	}

	cases := make([]OverdueCase, 0)
	for _, c := range candidates {
		inst, overdue := loan.OverdueInstallment(c.Loan, now)
		if !overdue {
			continue
		}

		oc := OverdueCase{
			Borrower:      c.Loan.Borrower.DisplayName(),
			Agent:         cmp.Or(c.AgentName, "Unknown Agent"),
			AgentID:       cmp.Or(c.Loan.AssignedAgent, "Unknown"),
			Amount:        c.Loan.RemainingAmount,
			DaysPastDue:   loan.DaysPastDue(inst.DueDate, now),
			LastContact:   lastContact(c.LastPaymentAt, now),
			LoanID:        c.Loan.ID,
			BorrowerPhone: "N/A",
			DueDate:       inst.DueDate,
		}
		if c.Loan.Borrower != nil && c.Loan.Borrower.Phone != "" {
			oc.BorrowerPhone = c.Loan.Borrower.Phone
		}
		cases = append(cases, oc)
	}

	slices.SortStableFunc(cases, func(a, b OverdueCase) int {
		return cmp.Compare(b.DaysPastDue, a.DaysPastDue)
	})
	s.logger.Debug("Overdue cases computed", "candidates", len(candidates), "overdue", len(cases))
	return cases, nil
}

func (s *reportServiceImpl) CollectionRecords(ctx context.Context, f CollectionFilter, now time.Time) ([]CollectionRecord, error) {
	day := startOfDay(now)
	month := startOfMonth(now)

	totals, err := s.repo.ListCollectionTotals(ctx, CollectionWindow{
		From:       f.From,
		To:         f.To,
		AgentID:    f.AgentID,
		DayStart:   day,
		DayEnd:     day.AddDate(0, 0, 1),
		MonthStart: month,
		MonthEnd:   month.AddDate(0, 1, 0),
	})
	if err != nil {
		s.logger.Error("Failed to load collection totals", "error", err)
		return nil, dbErr(err, "load collection records")
	}

	records := make([]CollectionRecord, 0, len(totals))
	for _, t := range totals {
		recent, err := s.repo.ListRecentPayments(ctx, t.AgentID, f.From, f.To, recentPaymentsLimit)
		if err != nil {
			s.logger.Error("Failed to load recent payments", "agentID", t.AgentID, "error", err)
			return nil, dbErr(err, "load recent payments")
		}
		if t.Status == "" {
			t.Status = "active"
		}
		records = append(records, CollectionRecord{CollectionTotals: t, RecentPayments: recent, Filter: f})
	}

	slices.SortStableFunc(records, func(a, b CollectionRecord) int {
		return b.TotalCollections.Cmp(a.TotalCollections)
	})
	return records, nil
}

func (s *reportServiceImpl) Trends(ctx context.Context, days int, now time.Time) ([]TrendPoint, error) {
	days = min(max(days, 1), MaxTrendDays)
	start := startOfDay(now).AddDate(0, 0, -(days - 1))

	counts, err := s.repo.DailyTrends(ctx, start, now.Location())
	if err != nil {
		s.logger.Error("Failed to load trends", "error", err)
		return nil, dbErr(err, "load trends")
	}

	points := make([]TrendPoint, 0, days)
	for i := range days {
		key := start.AddDate(0, 0, i).Format(time.DateOnly)
		p := TrendPoint{Date: key, Collections: decimal.Zero}
		if v, ok := counts.Collections[key]; ok {
			p.Collections = v
		}
		p.Loans = counts.Loans[key]
		p.Borrowers = counts.Borrowers[key]
		points = append(points, p)
	}
	return points, nil
}
