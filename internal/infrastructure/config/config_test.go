package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	tol, err := cfg.AmountTolerance()
	if err != nil || !tol.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("expected default tolerance 0.05, got %s (%v)", tol, err)
	}

	if cfg.MatchTimeWindow != 5*time.Minute {
		t.Fatalf("expected default match window 5m, got %s", cfg.MatchTimeWindow)
	}

	if cfg.KafkaEnabled() {
		t.Fatalf("expected kafka to be disabled without brokers")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pos.example,https://admin.example")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if !cfg.KafkaEnabled() || len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected two kafka brokers, got %v", cfg.KafkaBrokers)
	}

	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected two CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OUTBOX_BATCH=7\nHTTP_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("OUTBOX_BATCH", "")
	os.Unsetenv("OUTBOX_BATCH")
	t.Setenv("HTTP_PORT", "6060")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.OutboxBatch != 7 {
		t.Fatalf("expected batch from .env, got %d", cfg.OutboxBatch)
	}

	if cfg.HTTPPort != "6060" {
		t.Fatalf("expected environment to win over .env, got %s", cfg.HTTPPort)
	}
}

func TestLoadMissingDotenvIsIgnored(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLoadInvalidTolerance(t *testing.T) {
	t.Setenv("MATCH_AMOUNT_TOLERANCE", "five cents")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid tolerance")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
