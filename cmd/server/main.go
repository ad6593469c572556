// Command server runs the station assessment service: result
// submission, leaderboard ranking, participant status, Prometheus
// metrics, and a websocket leaderboard feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/healthday/stationrank/infrastructure/httpapi"
	"github.com/healthday/stationrank/infrastructure/middleware"
	"github.com/healthday/stationrank/infrastructure/scoring"
	"github.com/healthday/stationrank/infrastructure/storage"
	"github.com/healthday/stationrank/internal/application"
	"github.com/healthday/stationrank/internal/ports"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is a development convenience; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := application.DefaultConfig()
	if *configPath != "" {
		loaded, err := application.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr := os.Getenv("STATIONRANK_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if path := os.Getenv("STATIONRANK_DATABASE_PATH"); path != "" {
		cfg.DatabasePath = path
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	var thresholds ports.ThresholdProvider
	if cfg.ThresholdsPath != "" {
		table, err := application.LoadThresholdTable(cfg.ThresholdsPath)
		if err != nil {
			return fmt.Errorf("load thresholds: %w", err)
		}
		thresholds = table
		logger.Info("threshold table loaded",
			"path", cfg.ThresholdsPath,
			"rows", table.Len())
	}

	metrics := middleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	registry, err := scoring.DefaultRegistry(thresholds, metrics)
	if err != nil {
		return fmt.Errorf("build scorer registry: %w", err)
	}

	service, err := application.NewService(
		store, store, store, registry, metrics, logger,
		application.WithMaxConcurrency(cfg.Leaderboard.MaxConcurrency),
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	handler := httpapi.NewServer(service, logger, httpapi.Config{
		SubmitRatePerSecond: cfg.RateLimit.RequestsPerSecond,
		SubmitBurst:         cfg.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
