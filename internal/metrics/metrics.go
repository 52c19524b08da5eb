// Package metrics holds the Prometheus collectors for procedure execution and
// bridge evaluation. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ExecutionsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics provides observability for the evaluator and the bridge.
type Metrics struct {
	// Executions by procedure name and outcome
	ExecutionsTotal *prometheus.CounterVec

	// Failures by error class, e.g. "ArityMismatch"
	FailuresTotal *prometheus.CounterVec

	// Invocation latency by procedure
	ExecutionDuration *prometheus.HistogramVec

	// Bridge expression evaluations by outcome
	BridgeEvalsTotal *prometheus.CounterVec

	// Scripts run to completion or failure
	ScriptsTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ExecutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atomgrid_executions_total",
			Help: "Total executable link evaluations by procedure and outcome",
		}, []string{"procedure", "outcome"}),

		FailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atomgrid_execution_failures_total",
			Help: "Total failed evaluations by error class",
		}, []string{"class"}),

		ExecutionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atomgrid_execution_duration_seconds",
			Help:    "Duration of executable link evaluations including resolution",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"procedure"}),

		BridgeEvalsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atomgrid_bridge_evals_total",
			Help: "Total bridge expression evaluations by outcome",
		}, []string{"outcome"}),

		ScriptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atomgrid_scripts_total",
			Help: "Total scripts run by outcome",
		}, []string{"outcome"}),
	}
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// ObserveExecution records one evaluation of procedure.
func (m *Metrics) ObserveExecution(procedure string, ok bool, d time.Duration) {
	if m != nil {
		m.ExecutionsTotal.WithLabelValues(procedure, outcome(ok)).Inc()
		m.ExecutionDuration.WithLabelValues(procedure).Observe(d.Seconds())
	}
}

// IncrementFailure records a failure of the given class.
func (m *Metrics) IncrementFailure(class string) {
	if m != nil {
		m.FailuresTotal.WithLabelValues(class).Inc()
	}
}

// IncrementBridgeEval records one bridge expression evaluation.
func (m *Metrics) IncrementBridgeEval(ok bool) {
	if m != nil {
		m.BridgeEvalsTotal.WithLabelValues(outcome(ok)).Inc()
	}
}

// IncrementScript records one script run.
func (m *Metrics) IncrementScript(ok bool) {
	if m != nil {
		m.ScriptsTotal.WithLabelValues(outcome(ok)).Inc()
	}
}
