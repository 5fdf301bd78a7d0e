package app

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics holds the Prometheus metrics of the ceremony ledger
type LedgerMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Height          prometheus.Gauge
	Queries         *prometheus.CounterVec
	UpkeepErrors    *prometheus.CounterVec
	PrunedNonces    prometheus.Counter
}

var (
	ledgerMetricsOnce sync.Once
	ledgerMetrics     *LedgerMetrics
)

// NewLedgerMetrics creates and registers ledger metrics (singleton pattern)
func NewLedgerMetrics() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerMetrics = &LedgerMetrics{
			Requests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ledger",
					Name:      "requests_total",
					Help:      "Signed requests by action and result",
				},
				[]string{"action", "result"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "distmpc",
					Subsystem: "ledger",
					Name:      "request_duration_seconds",
					Help:      "Time to validate, execute and commit a request",
					Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
				},
				[]string{"action"},
			),
			Height: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "distmpc",
					Subsystem: "ledger",
					Name:      "height",
					Help:      "Latest committed ledger height",
				},
			),
			Queries: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ledger",
					Name:      "queries_total",
					Help:      "Reads by kind (latest or historic) and result",
				},
				[]string{"kind", "result"},
			),
			UpkeepErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ledger",
					Name:      "upkeep_errors_total",
					Help:      "Housekeeping failures by operation and severity",
				},
				[]string{"operation", "severity"},
			),
			PrunedNonces: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ledger",
					Name:      "pruned_nonces_total",
					Help:      "Idle sender nonces removed",
				},
			),
		}
	})
	return ledgerMetrics
}
