package scoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ports"
)

var _ ports.StationScorer = (*DurationScorer)(nil)

// DurationScorer scores the single-duration-metric stations (balance
// and breath). It looks up a demographic threshold row for
// (station, duration_seconds, gender, age group); when none exists it
// falls back to the built-in default bands. A lookup miss is recorded
// as a metric but never blocks scoring.
type DurationScorer struct {
	station    domain.StationType
	defaults   domain.Bands
	thresholds ports.ThresholdProvider
	metrics    ports.MetricsCollector
	tracer     trace.Tracer
}

// NewBalanceScorer creates the scorer for the balance station.
// The threshold provider may be nil, in which case the built-in
// defaults always apply.
func NewBalanceScorer(thresholds ports.ThresholdProvider, metrics ports.MetricsCollector) *DurationScorer {
	return newDurationScorer(domain.StationBalance, defaultBalanceBands, thresholds, metrics)
}

// NewBreathScorer creates the scorer for the breath station.
func NewBreathScorer(thresholds ports.ThresholdProvider, metrics ports.MetricsCollector) *DurationScorer {
	return newDurationScorer(domain.StationBreath, defaultBreathBands, thresholds, metrics)
}

func newDurationScorer(station domain.StationType, defaults domain.Bands, thresholds ports.ThresholdProvider, metrics ports.MetricsCollector) *DurationScorer {
	return &DurationScorer{
		station:    station,
		defaults:   defaults,
		thresholds: thresholds,
		metrics:    metrics,
		tracer:     otel.Tracer("duration-scorer"),
	}
}

// Station returns the station this scorer handles.
func (ds *DurationScorer) Station() domain.StationType { return ds.station }

// Score classifies the recorded duration into {1,2,3}. At most one
// threshold lookup happens per call.
func (ds *DurationScorer) Score(ctx context.Context, m domain.Measurements, d domain.Demographics) (domain.Score, error) {
	_, span := ds.tracer.Start(ctx, "DurationScorer.Score",
		trace.WithAttributes(attribute.String("station", string(ds.station))))
	defer span.End()

	if err := m.Validate(); err != nil {
		span.RecordError(err)
		return domain.NoScore, err
	}

	seconds := ds.seconds(m)
	bands := ds.bands(d)
	score := bands.Classify(seconds)

	span.SetAttributes(
		attribute.Float64("measurement.seconds", seconds),
		attribute.Int("score", score.Value),
	)
	return score, nil
}

func (ds *DurationScorer) seconds(m domain.Measurements) float64 {
	if ds.station == domain.StationBalance {
		return m.Balance.Seconds
	}
	return m.Breath.Seconds
}

// bands resolves the band table for the demographic key, falling back
// to the built-in defaults on a lookup miss.
func (ds *DurationScorer) bands(d domain.Demographics) domain.Bands {
	if ds.thresholds == nil {
		return ds.defaults
	}
	bands, ok := ds.thresholds.GetThreshold(ds.station, MetricDuration, d.Gender, d.AgeGroup)
	if !ok {
		if ds.metrics != nil {
			ds.metrics.RecordCounter("threshold_lookup_misses_total", 1, map[string]string{
				labelStation: string(ds.station),
				labelMetric:  MetricDuration,
			})
		}
		return ds.defaults
	}
	return bands
}
