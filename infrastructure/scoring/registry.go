package scoring

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ports"
)

// Registry dispatches measurements to the scorer registered for their
// station. It is the single scoring entry point for the write path:
// unknown stations and malformed payloads are rejected here before any
// persistence is attempted.
type Registry struct {
	scorers map[domain.StationType]ports.StationScorer
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewRegistry creates a registry over the given scorers. Registering
// two scorers for the same station fails.
func NewRegistry(metrics ports.MetricsCollector, scorers ...ports.StationScorer) (*Registry, error) {
	byStation := make(map[domain.StationType]ports.StationScorer, len(scorers))
	for _, s := range scorers {
		if _, exists := byStation[s.Station()]; exists {
			return nil, fmt.Errorf("duplicate scorer for station %s", s.Station())
		}
		byStation[s.Station()] = s
	}
	return &Registry{
		scorers: byStation,
		metrics: metrics,
		tracer:  otel.Tracer("scoring-registry"),
	}, nil
}

// DefaultRegistry wires the four standard station scorers.
func DefaultRegistry(thresholds ports.ThresholdProvider, metrics ports.MetricsCollector) (*Registry, error) {
	return NewRegistry(metrics,
		NewBalanceScorer(thresholds, metrics),
		NewBreathScorer(thresholds, metrics),
		NewGripScorer(),
		NewHealthScorer(),
	)
}

// Score classifies a measurement for the given station and
// demographics. It returns domain.NoScore with a nil error only when
// the station legitimately produced no classification (empty health
// composite); every failure is a typed error.
func (r *Registry) Score(ctx context.Context, station domain.StationType, m domain.Measurements, d domain.Demographics) (domain.Score, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.Score",
		trace.WithAttributes(attribute.String("station", string(station))))
	defer span.End()

	start := time.Now()

	scorer, ok := r.scorers[station]
	if !ok {
		err := domain.NewStationError(string(station),
			fmt.Errorf("%w: %q", domain.ErrInvalidStationType, station))
		span.RecordError(err)
		return domain.NoScore, err
	}

	if m.Station != station {
		err := domain.NewMeasurementError(station, "station")
		span.RecordError(err)
		return domain.NoScore, err
	}

	score, err := scorer.Score(ctx, m, d)
	if err != nil {
		span.RecordError(err)
		return domain.NoScore, err
	}

	if r.metrics != nil {
		r.metrics.RecordLatency("score", time.Since(start), map[string]string{
			labelStation: string(station),
		})
	}
	return score, nil
}
