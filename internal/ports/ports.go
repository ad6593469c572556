// Package ports defines the interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the engine
// testable without a database or HTTP server.
package ports

import (
	"context"
	"time"

	"github.com/healthday/stationrank/internal/domain"
)

// StationScorer turns one station's raw measurement payload into a
// score, using the participant's demographics for threshold selection.
// Implementations must be deterministic, side-effect free, and safe for
// concurrent use.
type StationScorer interface {
	// Station returns the station this scorer handles.
	Station() domain.StationType

	// Score classifies the measurement into {1,2,3}, or domain.NoScore
	// when the payload carries no classifiable data (health composite
	// with all metrics absent). Malformed payloads fail with an error
	// wrapping domain.ErrInvalidMeasurement.
	Score(ctx context.Context, m domain.Measurements, d domain.Demographics) (domain.Score, error)
}

// ThresholdProvider is the read-only lookup for admin-managed scoring
// thresholds. A miss is not an error; callers fall back to built-in
// default bands and record the miss as an observable event.
type ThresholdProvider interface {
	// GetThreshold returns the band table for the given key, or false
	// when no matching threshold row exists.
	GetThreshold(station domain.StationType, metric string, gender domain.Gender, ageGroup domain.AgeGroup) (domain.Bands, bool)
}

// ParticipantStore reads registered participants. Registration itself
// happens outside the engine; the engine only consumes identities.
type ParticipantStore interface {
	// ReadParticipants returns the full participant population.
	ReadParticipants(ctx context.Context) ([]domain.Participant, error)

	// ReadParticipantByCode resolves a badge code to a participant.
	// Unknown codes fail with domain.ErrParticipantNotFound.
	ReadParticipantByCode(ctx context.Context, code string) (domain.Participant, error)
}

// ResultStore persists canonical station results. The store is assumed
// ACID: the uniqueness of (participant, station) is enforced
// transactionally, and a result and its score appear atomically or not
// at all.
type ResultStore interface {
	// ReadStationResults returns all results recorded for a participant.
	ReadStationResults(ctx context.Context, participantID string) ([]domain.StationResult, error)

	// InsertStationResult writes a new result. A conflicting second
	// write for the same (participant, station) pair fails with a
	// *domain.DuplicateResultError carrying the existing record's
	// identity; it never silently overwrites or no-ops.
	InsertStationResult(ctx context.Context, result domain.StationResult) error

	// DeleteStationResult removes a result entirely, allowing
	// resubmission. Unknown ids fail with domain.ErrResultNotFound.
	DeleteStationResult(ctx context.Context, id string) error
}

// ProfileStore resolves operator identities to display names for the
// station status views.
type ProfileStore interface {
	// ReadProfiles returns a map from operator id to display name for
	// the given ids. Unknown ids are simply absent from the result.
	ReadProfiles(ctx context.Context, ids []string) (map[string]string, error)
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations integrate with observability platforms like
// Prometheus; tests use a no-op collector.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}
