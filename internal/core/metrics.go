package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Source outcomes recorded per fan-out worker.
const (
	OutcomeData    = "data"
	OutcomeEmpty   = "empty"
	OutcomeNotice  = "notice"
	OutcomeFailure = "failure"
	OutcomeFatal   = "fatal"
)

// MetricsRecorder observes coordinator operations and per-source outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	ObserveSource(operation, source, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) ObserveSource(string, string, string)                 {}

// PrometheusMetricsRecorder exports operation latency and source outcomes.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
}

var _ MetricsRecorder = (*PrometheusMetricsRecorder)(nil)

// NewPrometheusMetricsRecorder registers the collectors on reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	rec := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "popstudy",
			Name:      "coordinator_operation_seconds",
			Help:      "Latency of coordinator operations by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "popstudy",
			Name:      "source_outcomes_total",
			Help:      "Fan-out results per source.",
		}, []string{"operation", "source", "outcome"}),
	}
	for _, c := range []prometheus.Collector{rec.durations, rec.outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// ObserveSource implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) ObserveSource(operation, source, outcome string) {
	r.outcomes.WithLabelValues(operation, source, outcome).Inc()
}
