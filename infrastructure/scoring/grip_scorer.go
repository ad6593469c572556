package scoring

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ports"
)

var _ ports.StationScorer = (*GripScorer)(nil)

// Grip strength bands, in kilograms. A band scores 1 below Low,
// 2 within [Low, High], and 3 strictly above High. The boundary
// semantics differ from domain.Bands: the upper bound is inclusive in
// the middle band (male 40kg scores 2, not 3).
type gripBand struct {
	low, high float64
}

func (b gripBand) classify(kg float64) domain.Score {
	switch {
	case kg > b.high:
		return domain.ScoreOf(3)
	case kg >= b.low:
		return domain.ScoreOf(2)
	default:
		return domain.ScoreOf(1)
	}
}

// Gender-specific grip bands. The unspecified band is the midpoint of
// the male and female bands.
var gripBands = map[domain.Gender]gripBand{
	domain.GenderMale:        {low: 30, high: 40},
	domain.GenderFemale:      {low: 20, high: 27},
	domain.GenderUnspecified: {low: 25, high: 33.5},
}

// GripScorer scores the grip strength station. The dominant value is
// the higher of the two hand readings, classified against
// gender-specific bands.
type GripScorer struct {
	tracer trace.Tracer
}

// NewGripScorer creates the scorer for the grip station.
func NewGripScorer() *GripScorer {
	return &GripScorer{tracer: otel.Tracer("grip-scorer")}
}

// Station returns the station this scorer handles.
func (gs *GripScorer) Station() domain.StationType { return domain.StationGrip }

// Score classifies the dominant grip reading into {1,2,3}.
func (gs *GripScorer) Score(ctx context.Context, m domain.Measurements, d domain.Demographics) (domain.Score, error) {
	_, span := gs.tracer.Start(ctx, "GripScorer.Score",
		trace.WithAttributes(attribute.String("station", string(domain.StationGrip))))
	defer span.End()

	if err := m.Validate(); err != nil {
		span.RecordError(err)
		return domain.NoScore, err
	}

	dominant := math.Max(m.Grip.LeftKg, m.Grip.RightKg)

	band, ok := gripBands[d.Gender]
	if !ok {
		band = gripBands[domain.GenderUnspecified]
	}
	score := band.classify(dominant)

	span.SetAttributes(
		attribute.Float64("measurement.dominant_kg", dominant),
		attribute.String("demographics.gender", string(d.Gender)),
		attribute.Int("score", score.Value),
	)
	return score, nil
}
