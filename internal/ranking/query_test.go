package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthday/stationrank/internal/domain"
)

// rankedPopulation builds a canonical leaderboard of n entries with
// distinct totals so rank order is unambiguous.
func rankedPopulation(n int) []domain.LeaderboardEntry {
	aggs := make([]ParticipantAggregate, 0, n)
	for i := 0; i < n; i++ {
		a := aggregate(fmt.Sprintf("P%03d", i+1), 12-(i%10), 4, baseTime.Add(time.Duration(i)*time.Minute))
		a.Participant.Name = fmt.Sprintf("Runner %03d", i+1)
		a.Participant.Organisation = []string{"Acme", "Globex", ""}[i%3]
		aggs = append(aggs, a)
	}
	return Rank(aggs)
}

func TestWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   QueryParams
		want QueryParams
	}{
		{
			name: "zero value",
			in:   QueryParams{},
			want: QueryParams{Limit: DefaultLimit, Sort: SortTotalScore, Order: OrderDesc},
		},
		{
			name: "limit clamped to cap",
			in:   QueryParams{Limit: 500},
			want: QueryParams{Limit: MaxLimit, Sort: SortTotalScore, Order: OrderDesc},
		},
		{
			name: "explicit values kept",
			in:   QueryParams{Limit: 25, Offset: 10, Sort: SortName, Order: OrderAsc},
			want: QueryParams{Limit: 25, Offset: 10, Sort: SortName, Order: OrderAsc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.WithDefaults())
		})
	}
}

func TestQueryDefaultsToFirstPage(t *testing.T) {
	ranked := rankedPopulation(30)

	res, err := Query(ranked, QueryParams{})
	require.NoError(t, err)
	assert.Len(t, res.Page, DefaultLimit)
	assert.Equal(t, 30, res.Total)
	assert.True(t, res.HasMore)
	// Default view is the canonical order, best first.
	assert.Equal(t, 1, res.Page[0].Rank)
}

func TestQueryRejectsNegativeOffset(t *testing.T) {
	_, err := Query(rankedPopulation(5), QueryParams{Offset: -1})
	assert.ErrorIs(t, err, ErrNegativeOffset)
}

func TestQueryRejectsInvalidSort(t *testing.T) {
	_, err := Query(rankedPopulation(5), QueryParams{Sort: "age"})
	assert.ErrorIs(t, err, ErrInvalidSortField)

	_, err = Query(rankedPopulation(5), QueryParams{Order: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

// Walking every page with any legal limit must reconstruct the full
// population exactly once, in order, with HasMore false only on the
// final page.
func TestPaginationReconstructsPopulation(t *testing.T) {
	ranked := rankedPopulation(83)

	for _, limit := range []int{1, 7, 10, 50} {
		t.Run(fmt.Sprintf("limit_%d", limit), func(t *testing.T) {
			var collected []domain.LeaderboardEntry
			offset := 0
			for {
				res, err := Query(ranked, QueryParams{Limit: limit, Offset: offset, Sort: SortRank, Order: OrderAsc})
				require.NoError(t, err)
				require.Equal(t, 83, res.Total)
				collected = append(collected, res.Page...)
				if !res.HasMore {
					break
				}
				require.Len(t, res.Page, limit)
				offset += limit
			}
			require.Len(t, collected, 83)
			for i, e := range collected {
				assert.Equal(t, i+1, e.Rank)
			}
		})
	}
}

func TestPaginateOffsetPastEnd(t *testing.T) {
	page, hasMore := Paginate(rankedPopulation(5), 10, 100)
	assert.Empty(t, page)
	assert.False(t, hasMore)
}

func TestFilter(t *testing.T) {
	ranked := rankedPopulation(9)

	tests := []struct {
		name       string
		nameFilter string
		orgFilter  string
		wantCount  int
	}{
		{name: "no filters match all", wantCount: 9},
		{name: "name substring", nameFilter: "003", wantCount: 1},
		{name: "name case insensitive", nameFilter: "runner", wantCount: 9},
		{name: "org filter", orgFilter: "acme", wantCount: 3},
		{name: "both filters conjunctive", nameFilter: "001", orgFilter: "globex", wantCount: 0},
		{name: "no match", nameFilter: "zzz", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(ranked, tt.nameFilter, tt.orgFilter)
			assert.Len(t, got, tt.wantCount)
		})
	}
}

func TestFilterPreservesRank(t *testing.T) {
	ranked := rankedPopulation(9)

	filtered := Filter(ranked, "", "acme")
	require.NotEmpty(t, filtered)
	for _, e := range filtered {
		assert.Equal(t, rankOf(t, ranked, e.ParticipantCode), e.Rank)
	}
}

func TestSortByNamePreservesRank(t *testing.T) {
	ranked := rankedPopulation(12)

	sorted, err := Sort(ranked, SortName, OrderAsc)
	require.NoError(t, err)
	require.Len(t, sorted, 12)

	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Name, sorted[i].Name)
	}
	// Display sorting never renumbers the canonical rank.
	for _, e := range sorted {
		assert.Equal(t, rankOf(t, ranked, e.ParticipantCode), e.Rank)
	}
}

func TestSortByStationPutsUnscoredLast(t *testing.T) {
	ranked := rankedPopulation(4)
	ranked[0].Grip = intPtr(3)
	ranked[1].Grip = nil
	ranked[2].Grip = intPtr(1)
	ranked[3].Grip = intPtr(2)

	for _, order := range []Order{OrderAsc, OrderDesc} {
		t.Run(string(order), func(t *testing.T) {
			sorted, err := Sort(ranked, SortGrip, order)
			require.NoError(t, err)
			assert.Nil(t, sorted[len(sorted)-1].Grip)
		})
	}
}

func TestSortStable(t *testing.T) {
	ranked := rankedPopulation(20)
	// Many entries share a total score; equal keys must keep canonical
	// relative order.
	sorted, err := Sort(ranked, SortTotalScore, OrderDesc)
	require.NoError(t, err)

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].TotalScore == sorted[i].TotalScore {
			assert.Less(t, sorted[i-1].Rank, sorted[i].Rank)
		}
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	ranked := rankedPopulation(6)
	firstBefore := ranked[0].ParticipantCode

	_, err := Sort(ranked, SortName, OrderDesc)
	require.NoError(t, err)
	assert.Equal(t, firstBefore, ranked[0].ParticipantCode)
}

func TestParseSortField(t *testing.T) {
	got, err := ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortTotalScore, got)

	got, err = ParseSortField("breath")
	require.NoError(t, err)
	assert.Equal(t, SortBreath, got)

	_, err = ParseSortField("height")
	assert.ErrorIs(t, err, ErrInvalidSortField)
}

func TestParseOrder(t *testing.T) {
	got, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderDesc, got)

	got, err = ParseOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, OrderAsc, got)

	_, err = ParseOrder("down")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func rankOf(t *testing.T, ranked []domain.LeaderboardEntry, code string) int {
	t.Helper()
	for _, e := range ranked {
		if e.ParticipantCode == code {
			return e.Rank
		}
	}
	t.Fatalf("participant %s not found", code)
	return 0
}
