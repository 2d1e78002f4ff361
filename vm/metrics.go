package vm

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExecutorMetrics holds the Prometheus collectors shared by all executors.
type ExecutorMetrics struct {
	actions    *prometheus.CounterVec
	rehearsals *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsRegistry *ExecutorMetrics
)

// Metrics returns the lazily-initialised executor metrics.
func Metrics() *ExecutorMetrics {
	metricsOnce.Do(func() {
		metricsRegistry = &ExecutorMetrics{
			actions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakeledger",
				Subsystem: "vm",
				Name:      "actions_total",
				Help:      "Executed actions segmented by type and outcome.",
			}, []string{"action", "outcome"}),
			rehearsals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakeledger",
				Subsystem: "vm",
				Name:      "rehearsals_total",
				Help:      "Rehearsal runs segmented by action type.",
			}, []string{"action"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stakeledger",
				Subsystem: "vm",
				Name:      "action_duration_seconds",
				Help:      "Wall time spent executing a single action.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"action"}),
		}
		prometheus.MustRegister(
			metricsRegistry.actions,
			metricsRegistry.rehearsals,
			metricsRegistry.latency,
		)
	})
	return metricsRegistry
}

// ObserveAction records one real execution.
func (m *ExecutorMetrics) ObserveAction(typ string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.actions.WithLabelValues(typ, outcome).Inc()
	m.latency.WithLabelValues(typ).Observe(elapsed.Seconds())
}

// ObserveRehearsal records one rehearsal run.
func (m *ExecutorMetrics) ObserveRehearsal(typ string) {
	if m == nil {
		return
	}
	m.rehearsals.WithLabelValues(typ).Inc()
}

// Actions exposes the action counter, mainly for tests.
func (m *ExecutorMetrics) Actions() *prometheus.CounterVec { return m.actions }

// Rehearsals exposes the rehearsal counter, mainly for tests.
func (m *ExecutorMetrics) Rehearsals() *prometheus.CounterVec { return m.rehearsals }
