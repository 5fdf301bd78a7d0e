package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// CeremonyMetrics holds all Prometheus metrics for the Ceremony module
type CeremonyMetrics struct {
	// Action metrics
	Actions *prometheus.CounterVec

	// Registry metrics
	Participants prometheus.Gauge

	// Ledger metrics
	Commitments      prometheus.Counter
	Reveals          prometheus.Counter
	RevealMismatches prometheus.Counter

	// Phase metrics
	CurrentPhase     prometheus.Gauge
	PhaseTransitions *prometheus.CounterVec
}

var (
	ceremonyMetricsOnce sync.Once
	ceremonyMetrics     *CeremonyMetrics
)

// NewCeremonyMetrics creates and registers Ceremony metrics (singleton pattern)
func NewCeremonyMetrics() *CeremonyMetrics {
	ceremonyMetricsOnce.Do(func() {
		ceremonyMetrics = &CeremonyMetrics{
			Actions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "actions_total",
					Help:      "Ceremony actions by type and outcome (accepted or error category)",
				},
				[]string{"action", "result"},
			),
			Participants: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "participants",
					Help:      "Number of registered participants",
				},
			),
			Commitments: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "commitments_total",
					Help:      "Accepted commitments",
				},
			),
			Reveals: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "reveals_total",
					Help:      "Accepted reveals",
				},
			),
			RevealMismatches: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "reveal_mismatches_total",
					Help:      "Reveals rejected because the key did not hash-match the commitment",
				},
			),
			CurrentPhase: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "phase",
					Help:      "Current phase (1=Join 2=Commit 3=Reveal 4=Complete)",
				},
			),
			PhaseTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "distmpc",
					Subsystem: "ceremony",
					Name:      "phase_transitions_total",
					Help:      "Phase transitions by source and target phase",
				},
				[]string{"from", "to"},
			),
		}
	})
	return ceremonyMetrics
}

// RecordCommittedState sets the phase and participant gauges. It is called
// with values read from committed state only.
func (k Keeper) RecordCommittedState(phase types.Phase, participants uint64) {
	k.metrics.CurrentPhase.Set(float64(phase))
	k.metrics.Participants.Set(float64(participants))
}
