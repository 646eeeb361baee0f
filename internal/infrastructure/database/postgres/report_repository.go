package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"microfinance-backend/internal/domain/report"
	"microfinance-backend/internal/pkg/apperrors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReportRepository runs the read-only aggregate queries behind the
// dashboards. Reversed payments never count.
type ReportRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ report.Repository = (*ReportRepository)(nil)

func NewReportRepository(db DBPool, logger *slog.Logger) *ReportRepository {
	return &ReportRepository{db: db, logger: logger.With("component", "ReportRepository")}
}

func (r *ReportRepository) OwnerKPIs(ctx context.Context, monthStart time.Time) (report.KPIs, error) {
	query := `
        SELECT
            (SELECT COUNT(*) FROM borrowers),
            (SELECT COUNT(*) FROM loans WHERE status = 'active'),
            (SELECT COALESCE(SUM(amount), 0) FROM loans WHERE status <> 'cancelled'),
            (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE NOT reversed AND created_at >= $1)`

	var k report.KPIs
	startTime := time.Now()
	err := r.db.QueryRow(ctx, query, monthStart).Scan(&k.TotalBorrowers, &k.ActiveLoans, &k.TotalDisbursed, &k.RepaymentsThisMonth)
	observe("OwnerKPIs", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query owner KPIs", "error", err)
		return report.KPIs{}, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return k, nil
}

func (r *ReportRepository) AgentCounts(ctx context.Context, agentID string, dayStart, dayEnd, monthStart, monthEnd time.Time) (report.AgentCounts, error) {
	query := `
        SELECT
            (SELECT COALESCE(SUM(amount), 0) FROM payments
                WHERE agent_id = $1 AND NOT reversed AND created_at >= $2 AND created_at < $3),
            (SELECT COUNT(*) FROM payments
                WHERE agent_id = $1 AND NOT reversed AND created_at >= $2 AND created_at < $3),
            (SELECT COUNT(*) FROM borrowers WHERE assigned_agent = $1 AND status = 'active'),
            (SELECT COUNT(*) FROM loans WHERE assigned_agent = $1 AND status = 'active'),
            (SELECT COUNT(*) FROM payments
                WHERE agent_id = $1 AND NOT reversed AND created_at >= $4 AND created_at < $5),
            (SELECT COUNT(*) FROM loans WHERE assigned_agent = $1 AND created_at >= $4 AND created_at < $5)`

	var c report.AgentCounts
	startTime := time.Now()
	err := r.db.QueryRow(ctx, query, agentID, dayStart, dayEnd, monthStart, monthEnd).Scan(
		&c.TodayCollections, &c.TodayPaymentsCount, &c.ActiveBorrowers, &c.PendingVisits, &c.MonthPayments, &c.MonthLoans,
	)
	observe("AgentCounts", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query agent KPIs", "agent_id", agentID, "error", err)
		return report.AgentCounts{}, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *ReportRepository) ListAgentTotals(ctx context.Context) ([]report.AgentTotals, error) {
	query := `
        SELECT a.id, a.agent_id, a.name, a.status,
            COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.agent_id = a.agent_id AND NOT p.reversed), 0),
            COALESCE((SELECT SUM(l.amount) FROM loans l WHERE l.assigned_agent = a.agent_id), 0),
            (SELECT COUNT(DISTINCT l.borrower_id) FROM loans l WHERE l.assigned_agent = a.agent_id)
        FROM agents a
        ORDER BY a.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query agent totals", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.AgentTotals, error) {
		var t report.AgentTotals
		err := row.Scan(&t.ID, &t.AgentID, &t.Name, &t.Status, &t.Collected, &t.TotalDisbursed, &t.Borrowers)
		return t, err
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read agent totals", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return totals, nil
}

func (r *ReportRepository) ListOverdueCandidates(ctx context.Context) ([]report.OverdueCandidate, error) {
	query := `
        SELECT ` + loanColumns + `,
            COALESCE(b.id::text, ''), COALESCE(b.name, ''), COALESCE(b.first_name, ''), COALESCE(b.last_name, ''),
            COALESCE(b.phone, ''), COALESCE(a.name, ''),
            (SELECT MAX(p.created_at) FROM payments p WHERE p.loan_id = l.id AND NOT p.reversed)
        FROM loans l
        LEFT JOIN borrowers b ON b.id = l.borrower_id
        LEFT JOIN agents a ON a.agent_id = l.assigned_agent
        WHERE l.status = 'active'`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		observe("ListOverdueCandidates", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query overdue candidates", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	candidates := make([]report.OverdueCandidate, 0)
	for rows.Next() {
		var l loan.Loan
		var c loan.BorrowerContact
		var cand report.OverdueCandidate
		targets := append(loanScanTargets(&l),
			&c.ID, &c.Name, &c.FirstName, &c.LastName, &c.Phone, &cand.AgentName, &cand.LastPaymentAt)
		if err := rows.Scan(targets...); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan overdue candidate", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		l.Borrower = &c
		cand.Loan = &l
		candidates = append(candidates, cand)
	}
	err = rows.Err()
	observe("ListOverdueCandidates", startTime, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return candidates, nil
}

func (r *ReportRepository) ListCollectionTotals(ctx context.Context, w report.CollectionWindow) ([]report.CollectionTotals, error) {
	query := `
        SELECT a.agent_id, a.name, a.status,
            COALESCE(SUM(p.amount) FILTER (WHERE ($1::timestamptz IS NULL OR p.created_at >= $1)
                AND ($2::timestamptz IS NULL OR p.created_at <= $2)), 0),
            COALESCE(SUM(p.amount) FILTER (WHERE p.created_at >= $4 AND p.created_at < $5), 0),
            COALESCE(SUM(p.amount) FILTER (WHERE p.created_at >= $6 AND p.created_at < $7), 0),
            COUNT(p.id) FILTER (WHERE ($1::timestamptz IS NULL OR p.created_at >= $1)
                AND ($2::timestamptz IS NULL OR p.created_at <= $2)),
            COUNT(p.id) FILTER (WHERE p.created_at >= $4 AND p.created_at < $5),
            COUNT(p.id) FILTER (WHERE p.created_at >= $6 AND p.created_at < $7),
            (SELECT COUNT(DISTINCT l.borrower_id) FROM loans l WHERE l.assigned_agent = a.agent_id)
        FROM agents a
        LEFT JOIN payments p ON p.agent_id = a.agent_id AND NOT p.reversed
        WHERE ($3::text = '' OR a.agent_id = $3)
        GROUP BY a.id, a.agent_id, a.name, a.status`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, w.From, w.To, w.AgentID, w.DayStart, w.DayEnd, w.MonthStart, w.MonthEnd)
	if err != nil {
		observe("ListCollectionTotals", startTime, err)
		r.logger.ErrorContext(ctx, "Failed to query collection totals", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CollectionTotals, error) {
		var t report.CollectionTotals
		err := row.Scan(&t.AgentID, &t.AgentName, &t.Status,
			&t.TotalCollections, &t.TodayCollections, &t.MonthCollections,
			&t.TotalPayments, &t.TodayPayments, &t.MonthPayments, &t.AssignedBorrowers)
		return t, err
	})
	observe("ListCollectionTotals", startTime, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read collection totals", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return totals, nil
}

func (r *ReportRepository) ListRecentPayments(ctx context.Context, agentID string, from, to *time.Time, limit int) ([]*payment.Payment, error) {
	query := `
        SELECT ` + paymentColumns + `
        FROM payments
        WHERE agent_id = $1 AND NOT reversed
          AND ($2::timestamptz IS NULL OR created_at >= $2)
          AND ($3::timestamptz IS NULL OR created_at <= $3)
        ORDER BY created_at DESC
        LIMIT $4`

	rows, err := r.db.Query(ctx, query, agentID, from, to, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query recent payments", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

// DailyTrends buckets rows by calendar day in loc.
func (r *ReportRepository) DailyTrends(ctx context.Context, start time.Time, loc *time.Location) (report.TrendCounts, error) {
	tz := loc.String()
	counts := report.TrendCounts{
		Collections: map[string]decimal.Decimal{},
		Loans:       map[string]int64{},
		Borrowers:   map[string]int64{},
	}

	collectionsSQL := `
        SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day, SUM(amount)
        FROM payments
        WHERE created_at >= $1 AND NOT reversed
        GROUP BY day`
	err := r.bucket(ctx, collectionsSQL, start, tz, func(rows pgx.Rows) error {
		var day string
		var total decimal.Decimal
		if err := rows.Scan(&day, &total); err != nil {
			return err
		}
		counts.Collections[day] = total
		return nil
	})
	if err != nil {
		return report.TrendCounts{}, err
	}

	for _, c := range []struct {
		table string
		into  map[string]int64
	}{
		{"loans", counts.Loans},
		{"borrowers", counts.Borrowers},
	} {
		countSQL := `
        SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM ` + c.table + `
        WHERE created_at >= $1
        GROUP BY day`
		err := r.bucket(ctx, countSQL, start, tz, func(rows pgx.Rows) error {
			var day string
			var n int64
			if err := rows.Scan(&day, &n); err != nil {
				return err
			}
			c.into[day] = n
			return nil
		})
		if err != nil {
			return report.TrendCounts{}, err
		}
	}
	return counts, nil
}

func (r *ReportRepository) bucket(ctx context.Context, query string, start time.Time, tz string, scan func(rows pgx.Rows) error) error {
	rows, err := r.db.Query(ctx, query, start, tz)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query daily trend", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}
