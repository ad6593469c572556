package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common domain errors surfaced by the scoring and submission paths.
var (
	// ErrDuplicateResult indicates a station result already exists for
	// this (participant, station) pair. Non-fatal: the operator can
	// delete the existing record and resubmit.
	ErrDuplicateResult = errors.New("station result already recorded")

	// ErrInvalidStationType indicates an unrecognized station identifier.
	ErrInvalidStationType = errors.New("invalid station type")

	// ErrInvalidMeasurement indicates a measurement payload missing
	// fields required by the station's scorer.
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrParticipantNotFound indicates an unknown participant code.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrResultNotFound indicates a station result id that does not exist.
	ErrResultNotFound = errors.New("station result not found")
)

// DuplicateResultError reports a submission conflict together with the
// identity and timestamp of the record that already exists, so the
// operator UI can offer delete-and-resubmit as a recovery action.
type DuplicateResultError struct {
	// ParticipantID is the participant whose result already exists.
	ParticipantID string

	// Station is the conflicting station.
	Station StationType

	// ExistingID is the id of the record already on file.
	ExistingID string

	// RecordedAt is when the existing record was submitted.
	RecordedAt time.Time
}

// Error implements the error interface for DuplicateResultError.
func (e *DuplicateResultError) Error() string {
	return fmt.Sprintf("duplicate result: participant=%s, station=%s, existing=%s, recorded_at=%s",
		e.ParticipantID, e.Station, e.ExistingID, e.RecordedAt.Format(time.RFC3339))
}

// Unwrap returns ErrDuplicateResult, supporting errors.Is checks.
func (e *DuplicateResultError) Unwrap() error { return ErrDuplicateResult }

// NewDuplicateResultError creates a DuplicateResultError with the
// existing record's identity.
func NewDuplicateResultError(participantID string, station StationType, existingID string, recordedAt time.Time) *DuplicateResultError {
	return &DuplicateResultError{
		ParticipantID: participantID,
		Station:       station,
		ExistingID:    existingID,
		RecordedAt:    recordedAt,
	}
}

// MeasurementError reports a malformed measurement payload and names
// the fields the station's scorer requires.
type MeasurementError struct {
	// Station is the station whose payload was malformed.
	Station StationType

	// Missing lists the required fields that were absent or invalid.
	Missing []string
}

// Error implements the error interface for MeasurementError.
func (e *MeasurementError) Error() string {
	return fmt.Sprintf("invalid measurement for station %s: missing or invalid fields [%s]",
		e.Station, strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrInvalidMeasurement, supporting errors.Is checks.
func (e *MeasurementError) Unwrap() error { return ErrInvalidMeasurement }

// NewMeasurementError creates a MeasurementError for the given station
// and missing fields.
func NewMeasurementError(station StationType, missing ...string) *MeasurementError {
	return &MeasurementError{Station: station, Missing: missing}
}

// StationError wraps an error with the offending station identifier.
type StationError struct {
	// Station is the raw station identifier from the request.
	Station string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StationError.
func (e *StationError) Error() string {
	return fmt.Sprintf("station %q: %v", e.Station, e.Err)
}

// Unwrap returns the underlying error.
func (e *StationError) Unwrap() error { return e.Err }

// NewStationError creates a StationError for the given identifier.
func NewStationError(station string, err error) *StationError {
	return &StationError{Station: station, Err: err}
}
