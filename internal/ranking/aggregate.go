// Package ranking implements the pure computation core of the
// leaderboard: per-participant score aggregation, canonical rank
// assignment, filtered/sorted/paginated query views, and summary
// statistics. Every function is a stateless transform over immutable
// snapshots; nothing here locks, blocks, or performs I/O.
package ranking

import (
	"time"

	"github.com/healthday/stationrank/internal/domain"
)

// Grade percentage boundaries. percentage = total / (completed*3) * 100.
const (
	aboveAveragePercent = 83.0
	averagePercent      = 50.0
)

// ParticipantAggregate combines one participant's stored station scores
// into the totals the ranking and statistics layers consume.
type ParticipantAggregate struct {
	Participant domain.Participant

	// Scores holds the per-station score for every station with a
	// non-absent result.
	Scores map[domain.StationType]int

	// TotalScore is the sum of all present scores. Absent stations
	// contribute nothing to the sum or the grade denominator.
	TotalScore int

	// CompletedStations counts stations with a non-absent score.
	CompletedStations int

	// Grade classifies TotalScore relative to CompletedStations.
	// GradeNone when no station is completed.
	Grade domain.Grade

	// LatestCompletion is the timestamp of the most recent scored
	// result; the zero time when nothing is completed. Earlier
	// completion wins rank ties.
	LatestCompletion time.Time
}

// Aggregate reduces a participant's station results to an aggregate.
// Results without a score (health composite with no metrics) do not
// count as completed. Partial completion is never an error.
func Aggregate(p domain.Participant, results []domain.StationResult) ParticipantAggregate {
	agg := ParticipantAggregate{
		Participant: p,
		Scores:      make(map[domain.StationType]int, len(results)),
	}

	for _, r := range results {
		v, ok := r.Score.Int()
		if !ok {
			continue
		}
		agg.Scores[r.Station] = v
		agg.TotalScore += v
		agg.CompletedStations++
		if r.RecordedAt.After(agg.LatestCompletion) {
			agg.LatestCompletion = r.RecordedAt
		}
	}

	agg.Grade = GradeFor(agg.TotalScore, agg.CompletedStations)
	return agg
}

// GradeFor classifies a total score against the maximum achievable for
// the completed station count. With zero completed stations there is no
// data to classify, so the grade is GradeNone, not GradeBad.
func GradeFor(total, completed int) domain.Grade {
	if completed <= 0 {
		return domain.GradeNone
	}
	percentage := float64(total) / float64(completed*3) * 100
	switch {
	case percentage >= aboveAveragePercent:
		return domain.GradeAboveAverage
	case percentage >= averagePercent:
		return domain.GradeAverage
	default:
		return domain.GradeBad
	}
}

// Entry projects an aggregate into the leaderboard view shape. The rank
// field is left at zero; Rank assigns it over the full population.
func (a ParticipantAggregate) Entry() domain.LeaderboardEntry {
	e := domain.LeaderboardEntry{
		ID:                a.Participant.ID,
		ParticipantCode:   a.Participant.Code,
		Name:              a.Participant.Name,
		Organisation:      a.Participant.Organisation,
		Gender:            a.Participant.Gender,
		TotalScore:        a.TotalScore,
		CompletedStations: a.CompletedStations,
		Grade:             a.Grade,
		LatestCompletion:  a.LatestCompletion,
	}
	if v, ok := a.Scores[domain.StationBalance]; ok {
		e.Balance = intPtr(v)
	}
	if v, ok := a.Scores[domain.StationBreath]; ok {
		e.Breath = intPtr(v)
	}
	if v, ok := a.Scores[domain.StationGrip]; ok {
		e.Grip = intPtr(v)
	}
	if v, ok := a.Scores[domain.StationHealth]; ok {
		e.Health = intPtr(v)
	}
	return e
}

func intPtr(v int) *int { return &v }
