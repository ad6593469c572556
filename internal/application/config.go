// Package application wires the pure engine to its collaborators:
// configuration loading, the admin-managed threshold table, and the
// service orchestrating the submission write path and leaderboard read
// path.
package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config is the service configuration, loaded from YAML with
// environment overrides applied by the caller.
type Config struct {
	// ListenAddr is the HTTP listen address, host:port.
	ListenAddr string `yaml:"listen_addr" validate:"required,hostname_port"`

	// DatabasePath is the SQLite database file path.
	DatabasePath string `yaml:"database_path" validate:"required"`

	// ThresholdsPath points at the admin-managed threshold table file.
	// Empty means no admin thresholds: built-in defaults apply
	// everywhere.
	ThresholdsPath string `yaml:"thresholds_path"`

	// LogLevel selects the slog level.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Leaderboard tunes the read path.
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`

	// RateLimit bounds the submission write path.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LeaderboardConfig tunes the leaderboard read path.
type LeaderboardConfig struct {
	// MaxConcurrency caps the concurrent per-participant result reads
	// during a leaderboard load.
	MaxConcurrency int `yaml:"max_concurrency" validate:"omitempty,min=1,max=64"`
}

// RateLimitConfig configures the submission token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained submission rate; 0 disables
	// rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`

	// Burst allows temporary spikes above the sustained rate.
	Burst int `yaml:"burst" validate:"min=0"`
}

// DefaultLeaderboardConcurrency bounds result reads when the config
// does not say otherwise.
const DefaultLeaderboardConcurrency = 8

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "localhost:8080",
		DatabasePath: "stationrank.db",
		LogLevel:     "info",
		Leaderboard:  LeaderboardConfig{MaxConcurrency: DefaultLeaderboardConcurrency},
		RateLimit:    RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
	}
}

// LoadConfig reads and validates a YAML config file, overlaying it on
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
