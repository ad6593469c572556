package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthday/stationrank/internal/domain"
)

func entry(code, org string, total int, grade domain.Grade) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		ParticipantCode: code,
		Organisation:    org,
		TotalScore:      total,
		Grade:           grade,
	}
}

func TestComputeStatistics(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.LeaderboardEntry
		want    Statistics
	}{
		{
			name:    "empty set",
			entries: nil,
			want:    Statistics{TopOrganization: NoOrganization},
		},
		{
			name: "average rounds to one decimal",
			entries: []domain.LeaderboardEntry{
				entry("P001", "", 10, domain.GradeAboveAverage),
				entry("P002", "", 7, domain.GradeAverage),
				entry("P003", "", 5, domain.GradeBad),
			},
			// 22/3 = 7.333...
			want: Statistics{AvgScore: 7.3, AboveAverageCount: 1, TopOrganization: NoOrganization},
		},
		{
			name: "top organisation by mean not headcount",
			entries: []domain.LeaderboardEntry{
				// Globex has more members but a lower mean.
				entry("P001", "Globex", 6, domain.GradeAverage),
				entry("P002", "Globex", 6, domain.GradeAverage),
				entry("P003", "Globex", 6, domain.GradeAverage),
				entry("P004", "Acme", 11, domain.GradeAboveAverage),
			},
			want: Statistics{AvgScore: 7.3, AboveAverageCount: 1, TopOrganization: "Acme"},
		},
		{
			name: "organisation tie resolves alphabetically",
			entries: []domain.LeaderboardEntry{
				entry("P001", "OrgB", 9, domain.GradeAverage),
				entry("P002", "OrgA", 9, domain.GradeAverage),
			},
			want: Statistics{AvgScore: 9, TopOrganization: "OrgA"},
		},
		{
			name: "entries without organisation are excluded from org stats",
			entries: []domain.LeaderboardEntry{
				entry("P001", "", 12, domain.GradeAboveAverage),
				entry("P002", "Acme", 4, domain.GradeBad),
			},
			want: Statistics{AvgScore: 8, AboveAverageCount: 1, TopOrganization: "Acme"},
		},
		{
			name: "above average count",
			entries: []domain.LeaderboardEntry{
				entry("P001", "", 12, domain.GradeAboveAverage),
				entry("P002", "", 11, domain.GradeAboveAverage),
				entry("P003", "", 6, domain.GradeAverage),
			},
			// 29/3 = 9.666...
			want: Statistics{AvgScore: 9.7, AboveAverageCount: 2, TopOrganization: NoOrganization},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatistics(tt.entries))
		})
	}
}

func TestComputeStatisticsDeterministic(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		entry("P001", "OrgC", 6, domain.GradeAverage),
		entry("P002", "OrgA", 6, domain.GradeAverage),
		entry("P003", "OrgB", 6, domain.GradeAverage),
	}

	// Map iteration order must never leak into the winner.
	first := ComputeStatistics(entries)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, ComputeStatistics(entries))
	}
	assert.Equal(t, "OrgA", first.TopOrganization)
}
