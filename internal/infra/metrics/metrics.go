// Package metrics exposes Prometheus collectors for settlement runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fantasyledger"

// Settlement counts what season runs do to ledgers.
type Settlement struct {
	Actions             *prometheus.CounterVec
	Warnings            *prometheus.CounterVec
	Conflicts           prometheus.Counter
	InvariantViolations prometheus.Counter
	RunDuration         *prometheus.HistogramVec
}

// NewSettlement creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewSettlement(reg prometheus.Registerer) *Settlement {
	m := &Settlement{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_actions_total",
			Help:      "Per-participant outcomes of consolidation and repair runs.",
		}, []string{"mode", "action"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculator_warnings_total",
			Help:      "Non-fatal calculator warnings by kind.",
		}, []string{"kind"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_write_conflicts_total",
			Help:      "Optimistic version check failures on ledger writes.",
		}),
		InvariantViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_invariant_violations_total",
			Help:      "Stored ledgers whose balance or ordering did not match their entries.",
		}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "season_run_duration_seconds",
			Help:      "Duration of season-wide runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"mode"}),
	}

	if reg != nil {
		reg.MustRegister(m.Actions, m.Warnings, m.Conflicts, m.InvariantViolations, m.RunDuration)
	}

	return m
}

func (m *Settlement) Action(mode, action string) {
	m.Actions.WithLabelValues(mode, action).Inc()
}

func (m *Settlement) Warning(kind string) {
	m.Warnings.WithLabelValues(kind).Inc()
}

func (m *Settlement) Conflict() {
	m.Conflicts.Inc()
}

func (m *Settlement) InvariantViolation() {
	m.InvariantViolations.Inc()
}

func (m *Settlement) ObserveRun(mode string, started time.Time) {
	m.RunDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}
