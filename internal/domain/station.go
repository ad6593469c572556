// Package domain contains the pure types of the assessment engine:
// participants, station measurements, scores, grades, and the derived
// leaderboard view. Nothing in this package performs I/O.
package domain

import "fmt"

// StationType identifies one physical fitness test station.
type StationType string

// The four assessment stations.
const (
	StationBalance StationType = "balance"
	StationBreath  StationType = "breath"
	StationGrip    StationType = "grip"
	StationHealth  StationType = "health"
)

// AllStations lists every known station in canonical display order.
// The order is also the column order of the leaderboard view.
var AllStations = []StationType{StationBalance, StationBreath, StationGrip, StationHealth}

// ParseStation converts a wire-level station identifier into a StationType.
// Unrecognized identifiers fail with ErrInvalidStationType before any
// scoring is attempted.
func ParseStation(s string) (StationType, error) {
	switch StationType(s) {
	case StationBalance, StationBreath, StationGrip, StationHealth:
		return StationType(s), nil
	default:
		return "", NewStationError(s, fmt.Errorf("%w: %q", ErrInvalidStationType, s))
	}
}
