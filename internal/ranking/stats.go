package ranking

import (
	"math"

	"github.com/healthday/stationrank/internal/domain"
)

// NoOrganization is reported when no entry carries an organisation.
const NoOrganization = "None"

// Statistics summarizes a set of leaderboard entries. Computed over the
// post-filter set so the numbers always describe what the caller sees.
type Statistics struct {
	// AvgScore is the mean total score, rounded to one decimal place.
	// Zero for an empty set.
	AvgScore float64 `json:"avgScore"`

	// AboveAverageCount counts entries graded Above Average.
	AboveAverageCount int `json:"aboveAverageCount"`

	// TopOrganization is the organisation with the highest mean total
	// score among its members. Ties resolve alphabetically ascending so
	// repeated runs report the same winner. NoOrganization when no
	// entry has an organisation.
	TopOrganization string `json:"topOrganization"`
}

// ComputeStatistics derives summary statistics from leaderboard entries.
func ComputeStatistics(entries []domain.LeaderboardEntry) Statistics {
	stats := Statistics{TopOrganization: NoOrganization}
	if len(entries) == 0 {
		return stats
	}

	var sum int
	orgSums := make(map[string]int)
	orgCounts := make(map[string]int)

	for _, e := range entries {
		sum += e.TotalScore
		if e.Grade == domain.GradeAboveAverage {
			stats.AboveAverageCount++
		}
		if e.Organisation != "" {
			orgSums[e.Organisation] += e.TotalScore
			orgCounts[e.Organisation]++
		}
	}

	stats.AvgScore = math.Round(float64(sum)/float64(len(entries))*10) / 10

	// Winner is the highest mean per member, with an alphabetical
	// tie-break.
	var best string
	var bestMean float64
	for org, s := range orgSums {
		mean := float64(s) / float64(orgCounts[org])
		if best == "" || mean > bestMean || (mean == bestMean && org < best) {
			best = org
			bestMean = mean
		}
	}
	if best != "" {
		stats.TopOrganization = best
	}
	return stats
}
