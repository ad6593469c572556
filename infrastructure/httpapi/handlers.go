package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/healthday/stationrank/internal/application"
	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ranking"
)

// operatorHeader carries the operator identity. Authentication lives in
// front of this service; by the time a request arrives the header is
// trusted.
const operatorHeader = "X-Operator"

// submitPayload is the wire shape of a result submission.
type submitPayload struct {
	ParticipantCode string              `json:"participant_code"`
	Station         string              `json:"station"`
	Measurements    measurementsPayload `json:"measurements"`
}

// measurementsPayload is the flat wire shape of the raw measurements.
// Fields are pointers so "absent" and "zero" stay distinguishable; the
// station tag decides which fields matter.
type measurementsPayload struct {
	BalanceSeconds *float64 `json:"balance_seconds,omitempty"`
	BreathSeconds  *float64 `json:"breath_seconds,omitempty"`
	GripLeftKg     *float64 `json:"grip_left_kg,omitempty"`
	GripRightKg    *float64 `json:"grip_right_kg,omitempty"`
	BPSystolic     *float64 `json:"bp_systolic,omitempty"`
	BPDiastolic    *float64 `json:"bp_diastolic,omitempty"`
	Pulse          *float64 `json:"pulse,omitempty"`
	SpO2           *float64 `json:"spo2,omitempty"`
	BMI            *float64 `json:"bmi,omitempty"`
}

// toDomain assembles the tagged measurement union for one station.
// Missing required fields surface as a MeasurementError naming them.
func (p measurementsPayload) toDomain(station domain.StationType) (domain.Measurements, error) {
	m := domain.Measurements{Station: station}
	switch station {
	case domain.StationBalance:
		if p.BalanceSeconds == nil {
			return m, domain.NewMeasurementError(station, "balance_seconds")
		}
		m.Balance = &domain.BalanceMeasurement{Seconds: *p.BalanceSeconds}
	case domain.StationBreath:
		if p.BreathSeconds == nil {
			return m, domain.NewMeasurementError(station, "breath_seconds")
		}
		m.Breath = &domain.BreathMeasurement{Seconds: *p.BreathSeconds}
	case domain.StationGrip:
		var missing []string
		if p.GripLeftKg == nil {
			missing = append(missing, "grip_left_kg")
		}
		if p.GripRightKg == nil {
			missing = append(missing, "grip_right_kg")
		}
		if len(missing) > 0 {
			return m, domain.NewMeasurementError(station, missing...)
		}
		m.Grip = &domain.GripMeasurement{LeftKg: *p.GripLeftKg, RightKg: *p.GripRightKg}
	case domain.StationHealth:
		m.Health = &domain.HealthMeasurement{
			BPSystolic:  p.BPSystolic,
			BPDiastolic: p.BPDiastolic,
			Pulse:       p.Pulse,
			SpO2:        p.SpO2,
			BMI:         p.BMI,
		}
	}
	return m, m.Validate()
}

func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	operator := r.Header.Get(operatorHeader)
	if operator == "" {
		writeError(w, http.StatusBadRequest, "missing "+operatorHeader+" header", nil)
		return
	}

	station, err := domain.ParseStation(payload.Station)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	measurements, err := payload.Measurements.toDomain(station)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.engine.SubmitResult(r.Context(), application.SubmitRequest{
		ParticipantCode: payload.ParticipantCode,
		Station:         payload.Station,
		Measurements:    measurements,
		RecordedBy:      operator,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// The leaderboard changed; push the fresh standings to every
	// connected display.
	s.broadcastLeaderboard(r)

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	operator := r.Header.Get(operatorHeader)
	if operator == "" {
		writeError(w, http.StatusBadRequest, "missing "+operatorHeader+" header", nil)
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.engine.DeleteResult(r.Context(), id, operator); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.broadcastLeaderboard(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	params, err := parseQueryParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	page, err := s.engine.Leaderboard(r.Context(), params)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleParticipant(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	status, err := s.engine.Participant(r.Context(), code)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// parseQueryParams decodes the leaderboard query string into engine
// parameters, rejecting malformed values before they reach the engine.
func parseQueryParams(r *http.Request) (ranking.QueryParams, error) {
	q := r.URL.Query()
	params := ranking.QueryParams{
		NameFilter: q.Get("name_filter"),
		OrgFilter:  q.Get("org_filter"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, errors.New("limit must be a positive integer")
		}
		params.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return params, errors.New("offset must be a non-negative integer")
		}
		params.Offset = offset
	}

	sortField, err := ranking.ParseSortField(q.Get("sort"))
	if err != nil {
		return params, err
	}
	params.Sort = sortField

	order, err := ranking.ParseOrder(q.Get("order"))
	if err != nil {
		return params, err
	}
	params.Order = order

	return params, nil
}

// writeDomainError maps typed engine errors onto HTTP status codes.
// Duplicate conflicts include the existing record's identity so the
// operator UI can offer delete-and-resubmit.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var dup *domain.DuplicateResultError
	switch {
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, "result already recorded for this station", map[string]any{
			"existing_id": dup.ExistingID,
			"recorded_at": dup.RecordedAt,
		})
	case errors.Is(err, domain.ErrInvalidStationType):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidMeasurement):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ranking.ErrInvalidSortField),
		errors.Is(err, ranking.ErrInvalidOrder),
		errors.Is(err, ranking.ErrNegativeOffset):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]any) {
	body := map[string]any{"error": message}
	for k, v := range details {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// broadcastLeaderboard pushes the first page of the canonical
// leaderboard to websocket clients. Failures only cost the push, never
// the request that triggered it.
func (s *Server) broadcastLeaderboard(r *http.Request) {
	if s.hub.ClientCount() == 0 {
		return
	}
	page, err := s.engine.Leaderboard(r.Context(), ranking.QueryParams{})
	if err != nil {
		s.logger.Warn("leaderboard broadcast skipped", "error", err)
		return
	}
	s.hub.BroadcastJSON("leaderboard_update", page)
}
