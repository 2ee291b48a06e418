package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Dummybot   DummybotConfig   `yaml:"dummybot"`
	Assets     []string         `yaml:"assets"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Workers    WorkersConfig    `yaml:"workers"`
	Pricefeed  PricefeedConfig  `yaml:"pricefeed"`
	Source     SourceConfig     `yaml:"source"`
	Venue      VenueConfig      `yaml:"venue"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cloudwatch CloudwatchConfig `yaml:"cloudwatch"`
}

type DummybotConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ChannelsConfig struct {
	SignalBuffer int `yaml:"signal_buffer"`
}

type WorkersConfig struct {
	Count int         `yaml:"count"`
	Order OrderConfig `yaml:"order"`
}

type OrderConfig struct {
	MaxPolls       int `yaml:"max_polls"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

type PricefeedConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

type SourceConfig struct {
	Redis RedisSourceConfig `yaml:"redis"`
}

type RedisSourceConfig struct {
	Addr    string `yaml:"addr"`
	Stream  string `yaml:"stream"`
	BlockMs int    `yaml:"block_ms"`
}

type VenueConfig struct {
	BaseURL   string          `yaml:"base_url"`
	DataURL   string          `yaml:"data_url"`
	KeyID     string          `yaml:"key_id"`
	SecretKey string          `yaml:"secret_key"`
	TimeoutMs int             `yaml:"timeout_ms"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type CloudwatchConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Region        string `yaml:"region"`
	Namespace     string `yaml:"namespace"`
	DashboardName string `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Channels: ChannelsConfig{SignalBuffer: 64},
		Workers: WorkersConfig{
			Order: OrderConfig{MaxPolls: 10, PollIntervalMs: 200},
		},
		Pricefeed: PricefeedConfig{IntervalMs: 1000},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override secrets and endpoints from environment variables if available
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		config.Venue.KeyID = strings.TrimSpace(v)
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		config.Venue.SecretKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Source.Redis.Addr = strings.TrimSpace(v)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Dummybot.Name == "" {
		return fmt.Errorf("dummybot.name is required")
	}

	if cfg.Dummybot.Version == "" {
		return fmt.Errorf("dummybot.version is required")
	}

	if len(cfg.Assets) == 0 {
		return fmt.Errorf("at least one tracked asset is required")
	}
	for _, a := range cfg.Assets {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("tracked asset symbols must not be empty")
		}
	}

	if cfg.Channels.SignalBuffer <= 0 {
		return fmt.Errorf("channels.signal_buffer must be greater than 0")
	}

	if cfg.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be greater than 0")
	}
	if cfg.Workers.Order.MaxPolls <= 0 {
		return fmt.Errorf("workers.order.max_polls must be greater than 0")
	}
	if cfg.Workers.Order.PollIntervalMs < 0 {
		return fmt.Errorf("workers.order.poll_interval_ms must not be negative")
	}

	if cfg.Pricefeed.IntervalMs <= 0 {
		return fmt.Errorf("pricefeed.interval_ms must be greater than 0")
	}

	if cfg.Source.Redis.Addr == "" {
		return fmt.Errorf("source.redis.addr is required")
	}
	if cfg.Source.Redis.Stream == "" {
		return fmt.Errorf("source.redis.stream is required")
	}
	if cfg.Source.Redis.BlockMs <= 0 {
		return fmt.Errorf("source.redis.block_ms must be greater than 0")
	}

	if cfg.Venue.BaseURL == "" {
		return fmt.Errorf("venue.base_url is required")
	}
	if cfg.Venue.DataURL == "" {
		return fmt.Errorf("venue.data_url is required")
	}
	if IsProductionLike(AppEnvironment()) {
		if cfg.Venue.KeyID == "" || cfg.Venue.SecretKey == "" {
			return fmt.Errorf("venue.key_id and venue.secret_key are required")
		}
	}

	return nil
}
