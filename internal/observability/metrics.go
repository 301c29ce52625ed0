package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "algotrace"
	solverSubsystem  = "solver"
)

// SolveMetrics holds the solver collectors. Construct one per registry.
type SolveMetrics struct {
	SolvesTotal   *prometheus.CounterVec
	SolveDuration *prometheus.HistogramVec
	TraceSteps    *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec
}

func NewSolveMetrics(reg prometheus.Registerer) *SolveMetrics {
	f := promauto.With(reg)
	return &SolveMetrics{
		SolvesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: solverSubsystem,
			Name:      "solves_total",
			Help:      "Solve requests by algorithm, variant and result",
		}, []string{"algorithm", "variant", "result"}),

		SolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: solverSubsystem,
			Name:      "solve_duration_seconds",
			Help:      "Time to produce a trace, cache lookups included",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"algorithm", "variant"}),

		TraceSteps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: solverSubsystem,
			Name:      "trace_steps",
			Help:      "Number of steps per trace",
			Buckets:   prometheus.ExponentialBuckets(2, 4, 9),
		}, []string{"algorithm"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: solverSubsystem,
			Name:      "cache_lookups_total",
			Help:      "Trace cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *SolveMetrics) ObserveSolve(ev SolveEvent) {
	if m == nil {
		return
	}
	m.SolvesTotal.WithLabelValues(ev.Algorithm, ev.Variant, ev.Result()).Inc()
	if ev.Err != nil {
		return
	}
	m.SolveDuration.WithLabelValues(ev.Algorithm, ev.Variant).Observe(ev.Duration.Seconds())
	m.TraceSteps.WithLabelValues(ev.Algorithm).Observe(float64(ev.Steps))
	if ev.CacheHit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}
