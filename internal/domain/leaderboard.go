package domain

import "time"

// LeaderboardEntry is the derived, queryable view combining participant
// identity with aggregated scores and canonical rank. It is recomputed
// from Participant + StationResult on every query and never persisted.
//
// Per-station scores are pointers so absent stations render as null
// ("not yet completed") rather than a misleading zero.
type LeaderboardEntry struct {
	ID                string    `json:"id"`
	ParticipantCode   string    `json:"participant_code"`
	Name              string    `json:"name"`
	Organisation      string    `json:"organisation"`
	Gender            Gender    `json:"gender"`
	Balance           *int      `json:"balance"`
	Breath            *int      `json:"breath"`
	Grip              *int      `json:"grip"`
	Health            *int      `json:"health"`
	TotalScore        int       `json:"total_score"`
	CompletedStations int       `json:"completed_stations"`
	Grade             Grade     `json:"grade,omitempty"`
	LatestCompletion  time.Time `json:"latest_completion"`

	// Rank is the dense canonical competition position assigned over the
	// full population. Display sorting never renumbers it.
	Rank int `json:"rank"`
}

// StationScore returns the entry's score for one station, or nil when
// the station has no result yet.
func (e LeaderboardEntry) StationScore(station StationType) *int {
	switch station {
	case StationBalance:
		return e.Balance
	case StationBreath:
		return e.Breath
	case StationGrip:
		return e.Grip
	case StationHealth:
		return e.Health
	default:
		return nil
	}
}
