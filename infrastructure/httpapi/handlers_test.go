package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthday/stationrank/internal/application"
	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ranking"
)

// stubEngine records the last call and returns canned responses.
type stubEngine struct {
	submitResult domain.StationResult
	submitErr    error
	deleteErr    error
	page         application.LeaderboardPage
	pageErr      error
	status       application.ParticipantStatus
	statusErr    error

	lastSubmit application.SubmitRequest
	lastDelete string
	lastParams ranking.QueryParams
	lastCode   string
}

func (s *stubEngine) SubmitResult(_ context.Context, req application.SubmitRequest) (domain.StationResult, error) {
	s.lastSubmit = req
	return s.submitResult, s.submitErr
}

func (s *stubEngine) DeleteResult(_ context.Context, resultID, _ string) error {
	s.lastDelete = resultID
	return s.deleteErr
}

func (s *stubEngine) Leaderboard(_ context.Context, params ranking.QueryParams) (application.LeaderboardPage, error) {
	s.lastParams = params
	return s.page, s.pageErr
}

func (s *stubEngine) Participant(_ context.Context, code string) (application.ParticipantStatus, error) {
	s.lastCode = code
	return s.status, s.statusErr
}

func newTestServer(engine Engine) *Server {
	return NewServer(engine, nil, Config{})
}

func doJSON(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

var operatorHeaders = map[string]string{operatorHeader: "op-1"}

func TestSubmitResultEndpoint(t *testing.T) {
	engine := &stubEngine{submitResult: domain.StationResult{
		ID:      "res-1",
		Station: domain.StationGrip,
		Score:   domain.ScoreOf(3),
	}}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodPost, "/api/results", `{
		"participant_code": "P001",
		"station": "grip",
		"measurements": {"grip_left_kg": 35, "grip_right_kg": 42}
	}`, operatorHeaders)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "P001", engine.lastSubmit.ParticipantCode)
	assert.Equal(t, "grip", engine.lastSubmit.Station)
	assert.Equal(t, "op-1", engine.lastSubmit.RecordedBy)
	require.NotNil(t, engine.lastSubmit.Measurements.Grip)
	assert.Equal(t, 35.0, engine.lastSubmit.Measurements.Grip.LeftKg)

	var result domain.StationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "res-1", result.ID)
}

func TestSubmitResultEndpointErrors(t *testing.T) {
	recordedAt := time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		headers    map[string]string
		submitErr  error
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       `{`,
			headers:    operatorHeaders,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing operator header",
			body:       `{"participant_code":"P001","station":"grip","measurements":{"grip_left_kg":1,"grip_right_kg":2}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown station",
			body:       `{"participant_code":"P001","station":"swim","measurements":{}}`,
			headers:    operatorHeaders,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing measurement fields",
			body:       `{"participant_code":"P001","station":"balance","measurements":{}}`,
			headers:    operatorHeaders,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown participant",
			body:       `{"participant_code":"P404","station":"balance","measurements":{"balance_seconds":30}}`,
			headers:    operatorHeaders,
			submitErr:  domain.ErrParticipantNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "duplicate submission",
			body:       `{"participant_code":"P001","station":"balance","measurements":{"balance_seconds":30}}`,
			headers:    operatorHeaders,
			submitErr:  domain.NewDuplicateResultError("id-P001", domain.StationBalance, "res-9", recordedAt),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "engine failure",
			body:       `{"participant_code":"P001","station":"balance","measurements":{"balance_seconds":30}}`,
			headers:    operatorHeaders,
			submitErr:  fmt.Errorf("store offline"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{submitErr: tt.submitErr}
			srv := newTestServer(engine)

			rec := doJSON(t, srv, http.MethodPost, "/api/results", tt.body, tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSubmitResultConflictBodyCarriesExistingRecord(t *testing.T) {
	recordedAt := time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)
	engine := &stubEngine{
		submitErr: domain.NewDuplicateResultError("id-P001", domain.StationBalance, "res-9", recordedAt),
	}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodPost, "/api/results",
		`{"participant_code":"P001","station":"balance","measurements":{"balance_seconds":30}}`,
		operatorHeaders)

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "res-9", body["existing_id"])
	assert.NotEmpty(t, body["recorded_at"])
}

func TestDeleteResultEndpoint(t *testing.T) {
	engine := &stubEngine{}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodDelete, "/api/results/res-7", "", operatorHeaders)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "res-7", engine.lastDelete)
}

func TestDeleteResultEndpointNotFound(t *testing.T) {
	engine := &stubEngine{deleteErr: domain.ErrResultNotFound}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodDelete, "/api/results/missing", "", operatorHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	engine := &stubEngine{page: application.LeaderboardPage{
		Results: []domain.LeaderboardEntry{{ParticipantCode: "P001", Rank: 1}},
		Stats:   ranking.Statistics{AvgScore: 7.5, TopOrganization: "Acme"},
		Pagination: application.Pagination{
			Total: 1, Limit: 10,
		},
	}}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodGet,
		"/api/leaderboard?limit=25&offset=5&sort=name&order=asc&name_filter=run&org_filter=acme", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ranking.QueryParams{
		Limit:      25,
		Offset:     5,
		Sort:       ranking.SortName,
		Order:      ranking.OrderAsc,
		NameFilter: "run",
		OrgFilter:  "acme",
	}, engine.lastParams)

	var page application.LeaderboardPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Acme", page.Stats.TopOrganization)
}

func TestLeaderboardEndpointBadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "non-numeric limit", query: "limit=ten"},
		{name: "zero limit", query: "limit=0"},
		{name: "negative offset", query: "offset=-5"},
		{name: "bad sort field", query: "sort=shoe_size"},
		{name: "bad order", query: "order=sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubEngine{})
			rec := doJSON(t, srv, http.MethodGet, "/api/leaderboard?"+tt.query, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestParticipantEndpoint(t *testing.T) {
	engine := &stubEngine{status: application.ParticipantStatus{
		Participant: domain.Participant{Code: "P001", Name: "Runner"},
	}}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodGet, "/api/participants/P001", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P001", engine.lastCode)
}

func TestParticipantEndpointUnknown(t *testing.T) {
	engine := &stubEngine{statusErr: domain.ErrParticipantNotFound}
	srv := newTestServer(engine)

	rec := doJSON(t, srv, http.MethodGet, "/api/participants/P404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeasurementPayloadToDomain(t *testing.T) {
	seconds := 42.0
	left, right := 30.0, 35.0

	tests := []struct {
		name    string
		station domain.StationType
		payload measurementsPayload
		wantErr bool
	}{
		{
			name:    "balance",
			station: domain.StationBalance,
			payload: measurementsPayload{BalanceSeconds: &seconds},
		},
		{
			name:    "balance missing seconds",
			station: domain.StationBalance,
			payload: measurementsPayload{},
			wantErr: true,
		},
		{
			name:    "grip",
			station: domain.StationGrip,
			payload: measurementsPayload{GripLeftKg: &left, GripRightKg: &right},
		},
		{
			name:    "grip one hand missing",
			station: domain.StationGrip,
			payload: measurementsPayload{GripLeftKg: &left},
			wantErr: true,
		},
		{
			name:    "health with no metrics is accepted",
			station: domain.StationHealth,
			payload: measurementsPayload{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.payload.toDomain(tt.station)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidMeasurement)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.station, m.Station)
		})
	}
}
