package middleware

import (
	"time"

	"github.com/healthday/stationrank/internal/ports"
)

var _ ports.MetricsCollector = NopMetrics{}

// NopMetrics is a MetricsCollector that discards everything. Used in
// tests and when metrics are disabled.
type NopMetrics struct{}

// RecordLatency discards the observation.
func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}

// RecordCounter discards the observation.
func (NopMetrics) RecordCounter(string, float64, map[string]string) {}

// RecordGauge discards the observation.
func (NopMetrics) RecordGauge(string, float64, map[string]string) {}
