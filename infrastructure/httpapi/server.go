// Package httpapi exposes the engine over HTTP: result submission,
// leaderboard queries, participant status, Prometheus metrics, and a
// websocket feed that pushes the leaderboard to connected displays on
// every accepted submission.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/healthday/stationrank/infrastructure/middleware"
	"github.com/healthday/stationrank/internal/application"
	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ranking"
)

// Engine is the application surface the HTTP layer depends on.
type Engine interface {
	SubmitResult(ctx context.Context, req application.SubmitRequest) (domain.StationResult, error)
	DeleteResult(ctx context.Context, resultID, operator string) error
	Leaderboard(ctx context.Context, params ranking.QueryParams) (application.LeaderboardPage, error)
	Participant(ctx context.Context, code string) (application.ParticipantStatus, error)
}

// Config tunes the HTTP layer.
type Config struct {
	// SubmitRatePerSecond throttles the submission endpoint; 0 disables
	// throttling.
	SubmitRatePerSecond float64

	// SubmitBurst is the submission token bucket burst size.
	SubmitBurst int
}

// Server routes HTTP traffic to the engine.
type Server struct {
	engine Engine
	hub    *Hub
	logger *slog.Logger
	router *mux.Router
}

// NewServer builds the router and starts the websocket hub.
func NewServer(engine Engine, logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		hub:    NewHub(logger),
		logger: logger,
		router: mux.NewRouter(),
	}

	limiter := middleware.RateLimit(rate.Limit(cfg.SubmitRatePerSecond), cfg.SubmitBurst)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Handle("/results", limiter(http.HandlerFunc(s.handleSubmitResult))).Methods(http.MethodPost)
	api.HandleFunc("/results/{id}", s.handleDeleteResult).Methods(http.MethodDelete)
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/participants/{code}", s.handleParticipant).Methods(http.MethodGet)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket)

	go s.hub.Run()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
