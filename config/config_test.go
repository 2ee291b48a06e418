package config

import (
	"os"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `dummybot:
  name: "TestBot"
  version: "1.0"
assets: ["NVDA"]
channels:
  signal_buffer: 8
workers:
  count: 2
pricefeed:
  interval_ms: 1000
source:
  redis:
    addr: "localhost:6379"
    stream: "nvda"
    block_ms: 1000
venue:
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
  timeout_ms: 30000
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Dummybot.Name != "TestBot" {
		t.Errorf("unexpected name: %s", cfg.Dummybot.Name)
	}
	if cfg.Workers.Count != 2 {
		t.Errorf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Workers.Order.MaxPolls != 10 {
		t.Errorf("expected default max_polls, got %d", cfg.Workers.Order.MaxPolls)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALPACA_API_KEY", "PKTESTTESTTEST")
	t.Setenv("REDIS_ADDR", "redis:6379")
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Venue.KeyID != "PKTESTTESTTEST" {
		t.Errorf("env override not applied: %s", cfg.Venue.KeyID)
	}
	if cfg.Source.Redis.Addr != "redis:6379" {
		t.Errorf("redis override not applied: %s", cfg.Source.Redis.Addr)
	}
}

func TestLoadConfigMissingAssets(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	content := `dummybot:
  name: "TestBot"
  version: "1.0"
assets: []
source:
  redis:
    addr: "localhost:6379"
    stream: "nvda"
    block_ms: 1000
venue:
  base_url: "u"
  data_url: "d"
workers:
  count: 1
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f.Close()
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected validation error for empty assets")
	}
}

func TestProductionRequiresCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_SECRET_KEY", "")
	path := writeTempConfig(t)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for missing credentials in production")
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if got := AppEnvironment(); got != EnvironmentProduction {
		t.Errorf("alias not resolved: %s", got)
	}
	if !IsProductionLike(EnvironmentStaging) {
		t.Errorf("staging should be production-like")
	}
	if IsProductionLike(EnvironmentDevelopment) {
		t.Errorf("development should not be production-like")
	}
}
