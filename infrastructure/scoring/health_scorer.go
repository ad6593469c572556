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

var _ ports.StationScorer = (*HealthScorer)(nil)

// HealthScorer scores the composite health-check station. Each present
// metric is classified independently against fixed, non-demographic
// bands; the composite is the rounded mean of the per-metric scores,
// clamped to [1,3]. Missing metrics shrink the denominator; with all
// five missing the result is NoScore rather than an error.
type HealthScorer struct {
	tracer trace.Tracer
}

// NewHealthScorer creates the scorer for the health station.
func NewHealthScorer() *HealthScorer {
	return &HealthScorer{tracer: otel.Tracer("health-scorer")}
}

// Station returns the station this scorer handles.
func (hs *HealthScorer) Station() domain.StationType { return domain.StationHealth }

// Score computes the composite health score.
func (hs *HealthScorer) Score(ctx context.Context, m domain.Measurements, d domain.Demographics) (domain.Score, error) {
	_, span := hs.tracer.Start(ctx, "HealthScorer.Score",
		trace.WithAttributes(attribute.String("station", string(domain.StationHealth))))
	defer span.End()

	if err := m.Validate(); err != nil {
		span.RecordError(err)
		return domain.NoScore, err
	}

	h := m.Health
	var sum, count int
	record := func(s int) {
		sum += s
		count++
	}

	if h.BPSystolic != nil {
		record(scoreSystolic(*h.BPSystolic))
	}
	if h.BPDiastolic != nil {
		record(scoreDiastolic(*h.BPDiastolic))
	}
	if h.Pulse != nil {
		record(scorePulse(*h.Pulse))
	}
	if h.SpO2 != nil {
		record(scoreSpO2(*h.SpO2))
	}
	if h.BMI != nil {
		record(scoreBMI(*h.BMI))
	}

	span.SetAttributes(attribute.Int("measurement.metric_count", count))

	if count == 0 {
		return domain.NoScore, nil
	}

	composite := int(math.Round(float64(sum) / float64(count)))
	if composite < 1 {
		composite = 1
	}
	if composite > 3 {
		composite = 3
	}

	span.SetAttributes(attribute.Int("score", composite))
	return domain.ScoreOf(composite), nil
}

// Fixed clinical bands for the five health metrics.

func scoreSystolic(v float64) int {
	switch {
	case v <= 120:
		return 3
	case v <= 139:
		return 2
	default:
		return 1
	}
}

func scoreDiastolic(v float64) int {
	switch {
	case v <= 80:
		return 3
	case v <= 89:
		return 2
	default:
		return 1
	}
}

func scorePulse(v float64) int {
	switch {
	case v >= 60 && v <= 80:
		return 3
	case (v >= 50 && v < 60) || (v > 80 && v <= 100):
		return 2
	default:
		return 1
	}
}

func scoreSpO2(v float64) int {
	switch {
	case v >= 97:
		return 3
	case v >= 94:
		return 2
	default:
		return 1
	}
}

func scoreBMI(v float64) int {
	switch {
	case v >= 18.5 && v <= 24.9:
		return 3
	case (v >= 25 && v <= 29.9) || (v >= 17 && v < 18.5):
		return 2
	default:
		return 1
	}
}
