package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/healthday/stationrank/internal/domain"
)

// Pagination bounds for leaderboard queries.
const (
	// DefaultLimit is used when the caller supplies no limit.
	DefaultLimit = 10

	// MaxLimit is the hard cap on page size.
	MaxLimit = 50
)

// Query parameter errors.
var (
	// ErrInvalidSortField indicates a sort field outside the allowed enum.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrInvalidOrder indicates an order other than asc or desc.
	ErrInvalidOrder = errors.New("invalid sort order")

	// ErrNegativeOffset indicates an offset below zero.
	ErrNegativeOffset = errors.New("offset must not be negative")
)

// SortField selects the display ordering of a leaderboard query.
// Sorting governs display order only; it never renumbers the canonical
// rank attached to each entry.
type SortField string

// Allowed sort fields.
const (
	SortRank         SortField = "rank"
	SortTotalScore   SortField = "total_score"
	SortName         SortField = "name"
	SortOrganisation SortField = "organisation"
	SortBalance      SortField = "balance"
	SortBreath       SortField = "breath"
	SortGrip         SortField = "grip"
	SortHealth       SortField = "health"
)

// Order is the sort direction.
type Order string

// Sort directions. Descending is the default, matching the competition
// view (highest score first).
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// QueryParams are the caller-supplied view parameters for a leaderboard
// query. The zero value selects the first page of the canonical order.
type QueryParams struct {
	// Limit is the page size; 0 means DefaultLimit, values above
	// MaxLimit are clamped to MaxLimit.
	Limit int

	// Offset is the number of filtered+sorted entries to skip.
	Offset int

	// Sort selects the display ordering; empty means canonical rank.
	Sort SortField

	// Order is the sort direction; empty means descending.
	Order Order

	// NameFilter is a case-insensitive substring match on the name.
	NameFilter string

	// OrgFilter is a case-insensitive substring match on the
	// organisation. When both filters are set, both must match.
	OrgFilter string
}

// QueryResult is one page of a leaderboard query plus the pagination
// facts the caller needs to continue.
type QueryResult struct {
	// Page is the requested slice of the filtered, sorted population.
	Page []domain.LeaderboardEntry

	// Total counts entries matching the filter, before pagination.
	Total int

	// HasMore reports whether entries remain past this page.
	HasMore bool
}

// WithDefaults applies defaults and bounds: zero limit becomes
// DefaultLimit, oversized limits are clamped to MaxLimit, and empty
// sort/order select total score descending. Stable sorting makes that
// view identical to the canonical rank order, best first. Validation of
// enum values is left to Sort, which reports typed errors.
func (q QueryParams) WithDefaults() QueryParams {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Sort == "" {
		q.Sort = SortTotalScore
	}
	if q.Order == "" {
		q.Order = OrderDesc
	}
	return q
}

// Query applies filter, display sort, and pagination to a canonically
// ranked population. The input is never modified, and the canonical
// rank on each entry is preserved verbatim: a caller sorting by name
// still sees each participant's true competition position.
func Query(ranked []domain.LeaderboardEntry, params QueryParams) (QueryResult, error) {
	params = params.WithDefaults()
	if params.Offset < 0 {
		return QueryResult{}, ErrNegativeOffset
	}

	filtered := Filter(ranked, params.NameFilter, params.OrgFilter)

	sorted, err := Sort(filtered, params.Sort, params.Order)
	if err != nil {
		return QueryResult{}, err
	}

	page, hasMore := Paginate(sorted, params.Limit, params.Offset)
	return QueryResult{Page: page, Total: len(filtered), HasMore: hasMore}, nil
}

// Filter returns the entries whose name and organisation contain the
// respective filter substrings, compared under Unicode case folding.
// Empty filters match everything; both filters must match when both are
// supplied. The result is a fresh slice.
func Filter(entries []domain.LeaderboardEntry, nameFilter, orgFilter string) []domain.LeaderboardEntry {
	if nameFilter == "" && orgFilter == "" {
		out := make([]domain.LeaderboardEntry, len(entries))
		copy(out, entries)
		return out
	}

	// Unicode-aware case folding handles characters strings.ToLower
	// gets wrong.
	caser := cases.Fold()
	name := caser.String(nameFilter)
	org := caser.String(orgFilter)

	out := make([]domain.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if name != "" && !strings.Contains(caser.String(e.Name), name) {
			continue
		}
		if org != "" && !strings.Contains(caser.String(e.Organisation), org) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Sort orders entries for display by the requested field and direction.
// The sort is stable: entries with equal keys keep their canonical-rank
// relative order, so identical queries are byte-for-byte reproducible.
// Entries missing a per-station score sort after all scored entries
// regardless of direction. The input slice is not modified.
func Sort(entries []domain.LeaderboardEntry, field SortField, order Order) ([]domain.LeaderboardEntry, error) {
	if order != OrderAsc && order != OrderDesc {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}

	less, err := lessFunc(field, order)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LeaderboardEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, less(out))
	return out, nil
}

// lessFunc builds the comparison for one sort field. Returned as a
// factory over the slice so the closures index the copied data.
func lessFunc(field SortField, order Order) (func(e []domain.LeaderboardEntry) func(i, j int) bool, error) {
	asc := order == OrderAsc

	switch field {
	case SortRank, SortTotalScore:
		// Rank and total score are the same ordering seen from opposite
		// ends: rank 1 is the highest total.
		return func(e []domain.LeaderboardEntry) func(i, j int) bool {
			return func(i, j int) bool {
				if field == SortRank {
					if asc {
						return e[i].Rank < e[j].Rank
					}
					return e[i].Rank > e[j].Rank
				}
				if asc {
					return e[i].TotalScore < e[j].TotalScore
				}
				return e[i].TotalScore > e[j].TotalScore
			}
		}, nil
	case SortName:
		return func(e []domain.LeaderboardEntry) func(i, j int) bool {
			return func(i, j int) bool {
				if asc {
					return e[i].Name < e[j].Name
				}
				return e[i].Name > e[j].Name
			}
		}, nil
	case SortOrganisation:
		return func(e []domain.LeaderboardEntry) func(i, j int) bool {
			return func(i, j int) bool {
				if asc {
					return e[i].Organisation < e[j].Organisation
				}
				return e[i].Organisation > e[j].Organisation
			}
		}, nil
	case SortBalance, SortBreath, SortGrip, SortHealth:
		station := domain.StationType(field)
		return func(e []domain.LeaderboardEntry) func(i, j int) bool {
			return func(i, j int) bool {
				si, sj := e[i].StationScore(station), e[j].StationScore(station)
				// Unscored stations always sort last.
				switch {
				case si == nil && sj == nil:
					return false
				case si == nil:
					return false
				case sj == nil:
					return true
				}
				if asc {
					return *si < *sj
				}
				return *si > *sj
			}
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, field)
	}
}

// Paginate slices one page out of the sorted entries and reports
// whether more entries remain past it.
func Paginate(entries []domain.LeaderboardEntry, limit, offset int) ([]domain.LeaderboardEntry, bool) {
	total := len(entries)
	if offset >= total {
		return []domain.LeaderboardEntry{}, false
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]domain.LeaderboardEntry, end-offset)
	copy(page, entries[offset:end])
	return page, offset+limit < total
}

// ParseSortField validates a wire-level sort field. Empty selects the
// default total score ordering.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortTotalScore, nil
	}
	switch SortField(s) {
	case SortRank, SortTotalScore, SortName, SortOrganisation,
		SortBalance, SortBreath, SortGrip, SortHealth:
		return SortField(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortField, s)
	}
}

// ParseOrder validates a wire-level sort direction.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return OrderDesc, nil
	case OrderAsc, OrderDesc:
		return Order(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
}
