package report

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports runner metrics through a prometheus
// registry: one counter per operation/status pair and one latency histogram
// per operation.
type PrometheusMetricsRecorder struct {
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the collectors with reg. A nil reg
// falls back to the default registerer.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seqreport",
		Name:      "operations_total",
		Help:      "Runner operations by name and outcome.",
	}, []string{"operation", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seqreport",
		Name:      "operation_duration_seconds",
		Help:      "Runner operation latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	if err := reg.Register(results); err != nil {
		return nil, err
	}
	if err := reg.Register(durations); err != nil {
		return nil, err
	}
	return &PrometheusMetricsRecorder{results: results, durations: durations}, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.results.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
