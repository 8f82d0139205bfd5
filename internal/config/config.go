package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, parsed from environment
// variables. Both cmd/api and cmd/worker load it.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Oracle provider: "anthropic", "gemini", or "mock".
	OracleProvider string `env:"ORACLE_PROVIDER" envDefault:"anthropic"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	GeminiKey      string `env:"GEMINI_API_KEY"`
	OracleModel    string `env:"ORACLE_MODEL"`

	// Storage backend: "redis" or "sqlite".
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisURL       string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"chronicle.db"`

	// ConsolidateEvery is the number of player turns between memory
	// consolidation jobs.
	ConsolidateEvery int `env:"CONSOLIDATE_EVERY" envDefault:"5"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected providers have what they need.
func (c *Config) Validate() error {
	switch c.OracleProvider {
	case "anthropic":
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown oracle provider: %q", c.OracleProvider)
	}

	switch c.StorageBackend {
	case "redis", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}
	return nil
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
