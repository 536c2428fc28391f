package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/emiliopalmerini/abeval/internal/adapters/otel"
	"github.com/emiliopalmerini/abeval/internal/adapters/prometheus"
	"github.com/emiliopalmerini/abeval/internal/util"
)

// Database holds libsql connection settings. An empty URL selects a local
// database file under the XDG data directory.
type Database struct {
	URL        string `env:"ABEVAL_DATABASE_URL"`
	AuthToken  string `env:"ABEVAL_AUTH_TOKEN"`
	MaxRetries int    `env:"ABEVAL_DB_MAX_RETRIES" envDefault:"3"`
}

// Logging selects the slog handler.
type Logging struct {
	Level  string `env:"ABEVAL_LOG_LEVEL" envDefault:"info"`
	Format string `env:"ABEVAL_LOG_FORMAT" envDefault:"text"`
}

// Config is the process configuration read from the environment.
type Config struct {
	Database    Database
	Logging     Logging
	Otel        otel.Config
	Pushgateway prometheus.Config
}

// Load parses the environment and fills in the default database location.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Database.URL == "" {
		dir, err := util.GetXDGDataDir()
		if err != nil {
			return nil, err
		}
		cfg.Database.URL = "file:" + filepath.Join(dir, "abeval.db")
	}
	if cfg.Database.MaxRetries < 0 {
		return nil, fmt.Errorf("ABEVAL_DB_MAX_RETRIES must be >= 0, got %d", cfg.Database.MaxRetries)
	}
	return &cfg, nil
}
