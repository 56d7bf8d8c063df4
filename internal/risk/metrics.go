package risk

import "github.com/prometheus/client_golang/prometheus"

// Workflow labels for run metrics.
const (
	WorkflowAnalysis = "analysis"
	WorkflowAlerts   = "alerts"
)

// Metrics holds Prometheus metrics for the risk subsystem.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	HistoryUpdates *prometheus.CounterVec
}

// NewMetrics registers and returns risk metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catrisk_runs_total",
			Help: "Total orchestrator runs by workflow and final state.",
		}, []string{"workflow", "state"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catrisk_run_duration_seconds",
			Help:    "Duration of orchestrator runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s .. ~128s
		}, []string{"workflow"}),
		HistoryUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catrisk_history_updates_total",
			Help: "History store mutations by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.HistoryUpdates,
	)

	return m
}

// ObserveRun records one settled orchestrator run.
func (m *Metrics) ObserveRun(workflow string, state RunState, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(workflow, string(state)).Inc()
	m.RunDuration.WithLabelValues(workflow).Observe(seconds)
}

// IncHistoryUpdate records one history store mutation.
func (m *Metrics) IncHistoryUpdate(op string) {
	if m == nil {
		return
	}
	m.HistoryUpdates.WithLabelValues(op).Inc()
}
