package config

import (
	"log/slog"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ConsolidateEvery != 5 {
		t.Errorf("ConsolidateEvery = %d, want 5", cfg.ConsolidateEvery)
	}
	if cfg.StorageBackend != "redis" {
		t.Errorf("StorageBackend = %q, want redis", cfg.StorageBackend)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ORACLE_PROVIDER", "mock")
	t.Setenv("CONSOLIDATE_EVERY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.OracleProvider != "mock" || cfg.ConsolidateEvery != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "mock needs nothing", cfg: Config{OracleProvider: "mock", StorageBackend: "redis"}},
		{name: "anthropic without key", cfg: Config{OracleProvider: "anthropic", StorageBackend: "redis"}, wantErr: true},
		{name: "anthropic with key", cfg: Config{OracleProvider: "anthropic", AnthropicKey: "k", StorageBackend: "sqlite"}},
		{name: "gemini without key", cfg: Config{OracleProvider: "gemini", StorageBackend: "redis"}, wantErr: true},
		{name: "unknown provider", cfg: Config{OracleProvider: "delphi", StorageBackend: "redis"}, wantErr: true},
		{name: "unknown backend", cfg: Config{OracleProvider: "mock", StorageBackend: "postgres"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
