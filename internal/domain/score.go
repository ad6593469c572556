package domain

import (
	"fmt"
	"time"
)

// Score is a station classification in {1,2,3}. The zero value means
// "no score": a station that produced no classification. The Valid flag
// keeps "no data" distinguishable from a numeric zero, which must never
// stand in for an absent score.
type Score struct {
	Value int
	Valid bool
}

// NoScore is the absent score.
var NoScore = Score{}

// ScoreOf wraps a classification value in a valid Score.
// The value must be within [1,3]; callers construct scores only from
// classifier output, which guarantees the range.
func ScoreOf(v int) Score { return Score{Value: v, Valid: true} }

// Int returns the score value and whether it is present.
func (s Score) Int() (int, bool) { return s.Value, s.Valid }

// String renders the score for logs and error messages.
func (s Score) String() string {
	if !s.Valid {
		return "no score"
	}
	return fmt.Sprintf("%d", s.Value)
}

// Grade classifies a participant's total score relative to the stations
// they completed. GradeNone means the participant has no scored stations
// yet; a participant with zero data is never graded "Bad".
type Grade string

// Grade values.
const (
	GradeAboveAverage Grade = "Above Average"
	GradeAverage      Grade = "Average"
	GradeBad          Grade = "Bad"
	GradeNone         Grade = ""
)

// Bands is a numeric band table mapping a measurement value to a score:
// value >= High scores 3, value >= Low scores 2, anything lower scores 1.
// Band tables come from admin-managed threshold rows or built-in defaults.
type Bands struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Classify maps a measurement value onto this band table.
func (b Bands) Classify(v float64) Score {
	switch {
	case v >= b.High:
		return ScoreOf(3)
	case v >= b.Low:
		return ScoreOf(2)
	default:
		return ScoreOf(1)
	}
}

// StationResult is one recorded measurement for a (participant, station)
// pair, together with the canonical score computed at submission time.
// At most one result exists per pair; results are immutable except for
// explicit deletion by an operator, which allows resubmission.
type StationResult struct {
	// ID uniquely identifies the result (UUID).
	ID string `json:"id"`

	// ParticipantID references the participant the result belongs to.
	ParticipantID string `json:"participant_id"`

	// Station is the station the measurement was taken at.
	Station StationType `json:"station"`

	// Measurements is the raw operator-recorded payload.
	Measurements Measurements `json:"measurements"`

	// Score is the canonical classification computed once at submission.
	// It is never recomputed on reads.
	Score Score `json:"score"`

	// RecordedAt is when the operator submitted the measurement.
	RecordedAt time.Time `json:"recorded_at"`

	// RecordedBy identifies the operator who recorded the measurement.
	RecordedBy string `json:"recorded_by"`
}
