package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	PaymentsTotal        *prometheus.CounterVec
	ReversalsTotal       *prometheus.CounterVec
	ReconciliationsTotal *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "microfinance_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microfinance_payments_total",
				Help: "Total number of payment submissions by outcome.",
			},
			[]string{"status"},
		),
		ReversalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microfinance_payment_reversals_total",
				Help: "Total number of payment reversal attempts by outcome.",
			},
			[]string{"status"},
		),
		ReconciliationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microfinance_loan_reconciliations_total",
				Help: "Total number of loan reconciliations by resulting transition.",
			},
			[]string{"outcome"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordPayment(status string) {
	Business.PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordReversal(status string) {
	Business.ReversalsTotal.WithLabelValues(status).Inc()
}

func RecordReconciliation(outcome string) {
	Business.ReconciliationsTotal.WithLabelValues(outcome).Inc()
}
