package report

import (
	"context"
	"microfinance-backend/internal/domain/payment"
	"time"
)

type Repository interface {
	OwnerKPIs(ctx context.Context, monthStart time.Time) (KPIs, error)

	AgentCounts(ctx context.Context, agentID string, dayStart, dayEnd, monthStart, monthEnd time.Time) (AgentCounts, error)

	ListAgentTotals(ctx context.Context) ([]AgentTotals, error)

	ListOverdueCandidates(ctx context.Context) ([]OverdueCandidate, error)

	ListCollectionTotals(ctx context.Context, w CollectionWindow) ([]CollectionTotals, error)

	ListRecentPayments(ctx context.Context, agentID string, from, to *time.Time, limit int) ([]*payment.Payment, error)

	// DailyTrends groups rows created since start by their day in loc.
	DailyTrends(ctx context.Context, start time.Time, loc *time.Location) (TrendCounts, error)
}
