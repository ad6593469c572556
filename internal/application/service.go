package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ports"
	"github.com/healthday/stationrank/internal/ranking"
)

// Scorer is the scoring entry point the service depends on. The
// scoring.Registry satisfies it; tests substitute a stub.
type Scorer interface {
	Score(ctx context.Context, station domain.StationType, m domain.Measurements, d domain.Demographics) (domain.Score, error)
}

// SubmitRequest is an operator's raw measurement submission.
type SubmitRequest struct {
	// ParticipantCode is the badge code identifying the participant.
	ParticipantCode string `validate:"required"`

	// Station is the wire-level station identifier.
	Station string `validate:"required"`

	// Measurements is the raw payload; its shape must match Station.
	Measurements domain.Measurements

	// RecordedBy identifies the submitting operator.
	RecordedBy string `validate:"required"`
}

// Pagination reports the query window of a leaderboard page.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// LeaderboardPage is a complete leaderboard query response: one page of
// entries, statistics over the full filtered set, and the pagination
// window.
type LeaderboardPage struct {
	Results    []domain.LeaderboardEntry `json:"results"`
	Stats      ranking.Statistics        `json:"stats"`
	Pagination Pagination                `json:"pagination"`
}

// StationStatus describes one station's completion state for a
// participant. Absent stations have a nil score and timestamp.
type StationStatus struct {
	Station    domain.StationType `json:"station"`
	Completed  bool               `json:"completed"`
	Score      *int               `json:"score"`
	ResultID   string             `json:"result_id,omitempty"`
	RecordedAt *time.Time         `json:"recorded_at,omitempty"`
	RecordedBy string             `json:"recorded_by,omitempty"`
}

// ParticipantStatus is the per-participant view served to station
// operators: identity plus completion state for every station.
type ParticipantStatus struct {
	Participant domain.Participant `json:"participant"`
	Stations    []StationStatus    `json:"stations"`
}

// Service orchestrates the engine: it scores and persists submissions
// on the write path and assembles the ranked leaderboard on the read
// path. The service holds no mutable state of its own; all
// synchronization lives in the store.
type Service struct {
	participants ports.ParticipantStore
	results      ports.ResultStore
	profiles     ports.ProfileStore
	scorer       Scorer
	metrics      ports.MetricsCollector
	logger       *slog.Logger
	tracer       trace.Tracer

	maxConcurrency int
	now            func() time.Time
	newID          func() string
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMaxConcurrency caps the concurrent per-participant result reads
// during a leaderboard load.
func WithMaxConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator substitutes the result id source, for tests.
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) { s.newID = gen }
}

// NewService creates the engine service. The profile store may be nil;
// operator names then render as their raw ids.
func NewService(
	participants ports.ParticipantStore,
	results ports.ResultStore,
	profiles ports.ProfileStore,
	scorer Scorer,
	metrics ports.MetricsCollector,
	logger *slog.Logger,
	opts ...ServiceOption,
) (*Service, error) {
	if participants == nil || results == nil {
		return nil, fmt.Errorf("participant and result stores are required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		participants:   participants,
		results:        results,
		profiles:       profiles,
		scorer:         scorer,
		metrics:        metrics,
		logger:         logger,
		tracer:         otel.Tracer("stationrank-service"),
		maxConcurrency: DefaultLeaderboardConcurrency,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitResult validates, scores, and persists one raw measurement.
// The canonical score is computed exactly once here and stored with the
// result; leaderboard reads never rescore. A conflicting second
// submission for the same (participant, station) pair surfaces as a
// *domain.DuplicateResultError carrying the existing record's identity.
func (s *Service) SubmitResult(ctx context.Context, req SubmitRequest) (domain.StationResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.SubmitResult",
		trace.WithAttributes(
			attribute.String("participant.code", req.ParticipantCode),
			attribute.String("station", req.Station),
		))
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return domain.StationResult{}, fmt.Errorf("invalid submission: %w", err)
	}

	station, err := domain.ParseStation(req.Station)
	if err != nil {
		s.countSubmission(req.Station, "invalid_station")
		return domain.StationResult{}, err
	}

	if err := req.Measurements.Validate(); err != nil {
		s.countSubmission(req.Station, "invalid_measurement")
		return domain.StationResult{}, err
	}

	participant, err := s.participants.ReadParticipantByCode(ctx, req.ParticipantCode)
	if err != nil {
		s.countSubmission(req.Station, "unknown_participant")
		return domain.StationResult{}, err
	}

	now := s.now()
	score, err := s.scorer.Score(ctx, station, req.Measurements, participant.DemographicsAt(now))
	if err != nil {
		s.countSubmission(req.Station, "scoring_failed")
		return domain.StationResult{}, err
	}

	result := domain.StationResult{
		ID:            s.newID(),
		ParticipantID: participant.ID,
		Station:       station,
		Measurements:  req.Measurements,
		Score:         score,
		RecordedAt:    now,
		RecordedBy:    req.RecordedBy,
	}

	if err := s.results.InsertStationResult(ctx, result); err != nil {
		status := "store_error"
		var dup *domain.DuplicateResultError
		if errors.As(err, &dup) {
			status = "duplicate"
			s.logger.Info("duplicate submission rejected",
				"participant", participant.Code,
				"station", station,
				"existing_id", dup.ExistingID)
		}
		s.countSubmission(req.Station, status)
		return domain.StationResult{}, err
	}

	s.countSubmission(req.Station, "accepted")
	s.logger.Info("result recorded",
		"participant", participant.Code,
		"station", station,
		"score", score.String(),
		"operator", req.RecordedBy)
	return result, nil
}

// DeleteResult removes a station result entirely so the station can be
// resubmitted. This is the recovery action for duplicate conflicts.
func (s *Service) DeleteResult(ctx context.Context, resultID, operator string) error {
	ctx, span := s.tracer.Start(ctx, "Service.DeleteResult",
		trace.WithAttributes(attribute.String("result.id", resultID)))
	defer span.End()

	if err := s.results.DeleteStationResult(ctx, resultID); err != nil {
		return err
	}
	s.logger.Info("result deleted", "result_id", resultID, "operator", operator)
	return nil
}

// Leaderboard loads the full population, aggregates and ranks it once,
// then applies the caller's filter/sort/pagination view. Statistics are
// computed over the filtered set, pre-pagination, so they always match
// the reported total.
func (s *Service) Leaderboard(ctx context.Context, params ranking.QueryParams) (LeaderboardPage, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Leaderboard")
	defer span.End()

	start := s.now()

	aggregates, err := s.loadAggregates(ctx)
	if err != nil {
		return LeaderboardPage{}, err
	}

	ranked := ranking.Rank(aggregates)

	params = params.WithDefaults()
	if params.Offset < 0 {
		return LeaderboardPage{}, ranking.ErrNegativeOffset
	}

	filtered := ranking.Filter(ranked, params.NameFilter, params.OrgFilter)
	sorted, err := ranking.Sort(filtered, params.Sort, params.Order)
	if err != nil {
		return LeaderboardPage{}, err
	}
	page, hasMore := ranking.Paginate(sorted, params.Limit, params.Offset)

	if s.metrics != nil {
		s.metrics.RecordLatency("leaderboard_query", time.Since(start), nil)
		s.metrics.RecordGauge("ranked_participants", float64(len(ranked)), nil)
	}

	span.SetAttributes(
		attribute.Int("leaderboard.ranked", len(ranked)),
		attribute.Int("leaderboard.filtered", len(filtered)),
		attribute.Int("leaderboard.page", len(page)),
	)

	return LeaderboardPage{
		Results: page,
		Stats:   ranking.ComputeStatistics(filtered),
		Pagination: Pagination{
			Total:   len(filtered),
			Limit:   params.Limit,
			Offset:  params.Offset,
			HasMore: hasMore,
		},
	}, nil
}

// Participant serves the operator view of one participant: identity
// plus completion state for every station, with operator ids resolved
// to display names when a profile store is available.
func (s *Service) Participant(ctx context.Context, code string) (ParticipantStatus, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Participant",
		trace.WithAttributes(attribute.String("participant.code", code)))
	defer span.End()

	participant, err := s.participants.ReadParticipantByCode(ctx, code)
	if err != nil {
		return ParticipantStatus{}, err
	}

	results, err := s.results.ReadStationResults(ctx, participant.ID)
	if err != nil {
		return ParticipantStatus{}, err
	}

	byStation := make(map[domain.StationType]domain.StationResult, len(results))
	operatorIDs := make([]string, 0, len(results))
	for _, r := range results {
		byStation[r.Station] = r
		operatorIDs = append(operatorIDs, r.RecordedBy)
	}

	names := s.resolveProfiles(ctx, operatorIDs)

	status := ParticipantStatus{
		Participant: participant,
		Stations:    make([]StationStatus, 0, len(domain.AllStations)),
	}
	for _, station := range domain.AllStations {
		st := StationStatus{Station: station}
		if r, ok := byStation[station]; ok {
			recordedAt := r.RecordedAt
			st.Completed = true
			st.ResultID = r.ID
			st.RecordedAt = &recordedAt
			st.RecordedBy = r.RecordedBy
			if name, ok := names[r.RecordedBy]; ok {
				st.RecordedBy = name
			}
			if v, ok := r.Score.Int(); ok {
				st.Score = &v
			} else {
				// Recorded but unscorable (empty health composite):
				// completed is still false for aggregation purposes.
				st.Completed = false
			}
		}
		status.Stations = append(status.Stations, st)
	}
	return status, nil
}

// loadAggregates reads the population and fans out the per-participant
// result reads with bounded concurrency.
func (s *Service) loadAggregates(ctx context.Context) ([]ranking.ParticipantAggregate, error) {
	participants, err := s.participants.ReadParticipants(ctx)
	if err != nil {
		return nil, err
	}

	aggregates := make([]ranking.ParticipantAggregate, len(participants))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, p := range participants {
		i, p := i, p
		g.Go(func() error {
			results, err := s.results.ReadStationResults(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("load results for %s: %w", p.Code, err)
			}
			agg := ranking.Aggregate(p, results)
			mu.Lock()
			aggregates[i] = agg
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregates, nil
}

func (s *Service) resolveProfiles(ctx context.Context, ids []string) map[string]string {
	if s.profiles == nil || len(ids) == 0 {
		return nil
	}
	names, err := s.profiles.ReadProfiles(ctx, ids)
	if err != nil {
		// Display names are cosmetic; fall back to raw ids.
		s.logger.Warn("profile lookup failed", "error", err)
		return nil
	}
	return names
}

func (s *Service) countSubmission(station, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCounter("submissions_total", 1, map[string]string{
		"station": station,
		"status":  status,
	})
}
