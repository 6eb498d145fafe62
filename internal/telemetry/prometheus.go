package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lingocache/internal/model"
)

// PrometheusSink exports evaluation counters, latency and cost
type PrometheusSink struct {
	evaluations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	cost        prometheus.Counter
	failures    *prometheus.CounterVec
}

// NewPrometheusSink registers the metrics on reg
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lingocache_evaluations_total",
			Help: "Evaluations by response source, source kind and degraded flag",
		}, []string{"source", "kind", "degraded"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lingocache_evaluation_duration_seconds",
			Help:    "Evaluation latency in seconds by response source",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16), // 0.5ms to ~16s
		}, []string{"source"}),
		cost: factory.NewCounter(prometheus.CounterOpts{
			Name: "lingocache_external_cost_units_total",
			Help: "Estimated cost units spent on the external evaluator",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lingocache_failures_total",
			Help: "Degrade and write failures by type",
		}, []string{"type"}),
	}
}

func (s *PrometheusSink) Name() string { return "prometheus" }

func (s *PrometheusSink) Record(_ context.Context, ev model.TelemetryEvent) error {
	degraded := "false"
	if ev.Degraded {
		degraded = "true"
	}
	s.evaluations.WithLabelValues(string(ev.Source), string(ev.SourceKind), degraded).Inc()
	s.latency.WithLabelValues(string(ev.Source)).Observe(ev.LatencyMS / 1000)
	if ev.CostUnits != nil {
		s.cost.Add(*ev.CostUnits)
	}
	if ev.Failure != "" {
		s.failures.WithLabelValues(ev.Failure).Inc()
	}
	return nil
}
