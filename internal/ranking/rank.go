package ranking

import (
	"sort"

	"github.com/healthday/stationrank/internal/domain"
)

// Rank assigns canonical competition positions over the entire
// unfiltered population. Order: total score descending, ties broken by
// earlier latest completion (first to finish wins), then by participant
// code ascending so the order is a strict total order even when two
// participants finish the same second. Participants with zero completed
// stations are excluded entirely: they occupy no rank number and do not
// appear on the leaderboard.
//
// Ranks are dense integers starting at 1 with no gaps or shared
// numbers. The input slice is not modified; ranking twice on identical
// input yields identical assignments.
func Rank(aggregates []ParticipantAggregate) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(aggregates))
	for _, a := range aggregates {
		if a.CompletedStations == 0 {
			continue
		}
		entries = append(entries, a.Entry())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if !entries[i].LatestCompletion.Equal(entries[j].LatestCompletion) {
			return entries[i].LatestCompletion.Before(entries[j].LatestCompletion)
		}
		return entries[i].ParticipantCode < entries[j].ParticipantCode
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
