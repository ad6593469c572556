// Package middleware provides cross-cutting concerns for the
// assessment engine: metrics collection and request throttling.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/healthday/stationrank/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks submission outcomes, threshold fallback
// frequency, and leaderboard query performance.
type PrometheusMetrics struct {
	submissionsTotal *prometheus.CounterVec
	thresholdMisses  *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	queryLatency     *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers its metrics with the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests pass a fresh
// registry so instances never collide.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stationrank_submissions_total",
				Help: "Station result submissions by station and outcome.",
			},
			[]string{"station", "status"},
		),
		thresholdMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stationrank_threshold_lookup_misses_total",
				Help: "Scoring threshold lookups that fell back to built-in default bands.",
			},
			[]string{"station", "metric"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stationrank_operations_total",
				Help: "Engine operations by name and status.",
			},
			[]string{"operation", "status"},
		),
		queryLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stationrank_operation_duration_seconds",
				Help:    "Execution time of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stationrank_system_state",
				Help: "Current system state values, such as the ranked population size.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.queryLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "submissions_total":
		pm.submissionsTotal.WithLabelValues(labels["station"], labels["status"]).Add(value)
	case "threshold_lookup_misses_total":
		pm.thresholdMisses.WithLabelValues(labels["station"], labels["metric"]).Add(value)
	default:
		status, ok := labels["status"]
		if !ok {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}
