package postgres

import (
	"errors"
	"microfinance-backend/internal/domain/report"
	"microfinance-backend/internal/pkg/apperrors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerKPIs(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)
	monthStart := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE NOT reversed AND created_at >= $1)")).
		WithArgs(monthStart).
		WillReturnRows(pgxmock.NewRows([]string{"borrowers", "active", "disbursed", "repayments"}).
			AddRow(int64(12), int64(9), decimal.NewFromInt(450000), decimal.NewFromInt(38000)))

	k, err := repo.OwnerKPIs(ctx, monthStart)

	require.NoError(t, err)
	assert.Equal(t, int64(12), k.TotalBorrowers)
	assert.Equal(t, int64(9), k.ActiveLoans)
	assert.True(t, k.TotalDisbursed.Equal(decimal.NewFromInt(450000)))
	assert.True(t, k.RepaymentsThisMonth.Equal(decimal.NewFromInt(38000)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestAgentCountsDatabaseError(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)
	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM borrowers WHERE assigned_agent = $1 AND status = 'active'")).
		WithArgs("AG1", day, day.AddDate(0, 0, 1), day, day.AddDate(0, 1, 0)).
		WillReturnError(errors.New("statement timeout"))

	_, err := repo.AgentCounts(ctx, "AG1", day, day.AddDate(0, 0, 1), day, day.AddDate(0, 1, 0))

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

func TestListAgentTotals(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM agents a ORDER BY a.created_at DESC")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "agent_id", "name", "status", "collected", "disbursed", "borrowers"}).
			AddRow("a-1", "AG1", "Ravi", "active", decimal.NewFromInt(50000), decimal.NewFromInt(200000), int64(4)))

	totals, err := repo.ListAgentTotals(ctx)

	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "AG1", totals[0].AgentID)
	assert.Equal(t, int64(4), totals[0].Borrowers)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListOverdueCandidates(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)

	l := testLoan()
	lastPaid := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)
	columns := append(append([]string{}, loanColumnNames...),
		"b_id", "b_name", "first_name", "last_name", "phone", "agent_name", "last_payment_at")
	row := append(loanRow(l), l.BorrowerID, "", "Asha", "Rao", "9876543210", "Ravi", &lastPaid)

	mockPool.ExpectQuery(regexp.QuoteMeta("LEFT JOIN agents a ON a.agent_id = l.assigned_agent WHERE l.status = 'active'")).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(row...))

	candidates, err := repo.ListOverdueCandidates(ctx)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Asha Rao", candidates[0].Loan.Borrower.DisplayName())
	assert.Equal(t, "Ravi", candidates[0].AgentName)
	assert.Equal(t, &lastPaid, candidates[0].LastPaymentAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListCollectionTotals(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	month := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	w := report.CollectionWindow{
		AgentID:  "AG1",
		DayStart: day, DayEnd: day.AddDate(0, 0, 1),
		MonthStart: month, MonthEnd: month.AddDate(0, 1, 0),
	}

	mockPool.ExpectQuery(regexp.QuoteMeta("LEFT JOIN payments p ON p.agent_id = a.agent_id AND NOT p.reversed")).
		WithArgs(w.From, w.To, "AG1", w.DayStart, w.DayEnd, w.MonthStart, w.MonthEnd).
		WillReturnRows(pgxmock.NewRows([]string{
			"agent_id", "name", "status", "total", "today", "month", "total_n", "today_n", "month_n", "borrowers",
		}).AddRow("AG1", "Ravi", "active",
			decimal.NewFromInt(9000), decimal.NewFromInt(1000), decimal.NewFromInt(4000),
			int64(6), int64(1), int64(3), int64(5)))

	totals, err := repo.ListCollectionTotals(ctx, w)

	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].TotalCollections.Equal(decimal.NewFromInt(9000)))
	assert.Equal(t, int64(3), totals[0].MonthPayments)
	assert.Equal(t, int64(5), totals[0].AssignedBorrowers)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListRecentPaymentsLimit(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)

	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $4")).
		WithArgs("AG123456", (*time.Time)(nil), (*time.Time)(nil), 10).
		WillReturnRows(pgxmock.NewRows(paymentColumnNames).AddRow(paymentRow(testPayment())...))

	payments, err := repo.ListRecentPayments(ctx, "AG123456", nil, nil, 10)

	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDailyTrends(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewReportRepository(mockPool, logger)

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	start := time.Date(2024, time.June, 13, 0, 0, 0, 0, loc)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE created_at >= $1 AND NOT reversed GROUP BY day")).
		WithArgs(start, "Asia/Kolkata").
		WillReturnRows(pgxmock.NewRows([]string{"day", "sum"}).AddRow("2024-06-14", decimal.NewFromInt(900)))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM loans WHERE created_at >= $1 GROUP BY day")).
		WithArgs(start, "Asia/Kolkata").
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}).AddRow("2024-06-15", int64(2)))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM borrowers WHERE created_at >= $1 GROUP BY day")).
		WithArgs(start, "Asia/Kolkata").
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}).AddRow("2024-06-13", int64(1)))

	counts, err := repo.DailyTrends(ctx, start, loc)

	require.NoError(t, err)
	assert.True(t, counts.Collections["2024-06-14"].Equal(decimal.NewFromInt(900)))
	assert.Equal(t, int64(2), counts.Loans["2024-06-15"])
	assert.Equal(t, int64(1), counts.Borrowers["2024-06-13"])
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
