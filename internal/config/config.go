package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the credora service.
type Config struct {
	Environment string `yaml:"environment"`
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"`

	Redis     RedisConfig     `yaml:"redis"`
	Rating    RatingConfig    `yaml:"rating"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Tracing   TracingConfig   `yaml:"tracing"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`

	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type RatingConfig struct {
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepBatch    int           `yaml:"sweep_batch"`
}

type WebhookConfig struct {
	SigningSecret string        `yaml:"signing_secret"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryCount    int           `yaml:"retry_count"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type BootstrapConfig struct {
	EnsureDefaultOrgAndKey bool `yaml:"ensure_default_org_and_key"`
}

// IsCloud reports whether the service runs in managed cloud mode.
func (c Config) IsCloud() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "cloud")
}

// Load reads the optional YAML config file and overlays environment variables.
func Load() (Config, error) {
	cfg := defaults()

	path := strings.TrimSpace(os.Getenv("CREDORA_CONFIG"))
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Environment:    "development",
		HTTPAddr:       ":8080",
		ServiceName:    "credora",
		ServiceVersion: "dev",
		Rating: RatingConfig{
			CacheTTL:      5 * time.Minute,
			SweepInterval: 15 * time.Minute,
			SweepBatch:    100,
		},
		Webhook: WebhookConfig{
			Timeout:    10 * time.Second,
			RetryCount: 3,
		},
		Tracing: TracingConfig{
			ExporterProtocol: "http",
			SamplingRatio:    1.0,
		},
		RateLimit: RateLimitConfig{
			Limit:  120,
			Window: time.Minute,
		},
		Bootstrap: BootstrapConfig{
			EnsureDefaultOrgAndKey: true,
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "CREDORA_ENV")
	setString(&cfg.HTTPAddr, "CREDORA_HTTP_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	if cfg.Redis.Addr != "" && envBool("REDIS_ENABLED", cfg.Redis.Enabled) {
		cfg.Redis.Enabled = true
	}
	setString(&cfg.Webhook.SigningSecret, "CREDORA_WEBHOOK_SECRET")
	setString(&cfg.Tracing.ExporterEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Tracing.ExporterProtocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
	cfg.Tracing.Enabled = envBool("CREDORA_TRACING_ENABLED", cfg.Tracing.Enabled)
	setString(&cfg.ServiceName, "CREDORA_SERVICE_NAME")
	setString(&cfg.ServiceVersion, "CREDORA_SERVICE_VERSION")
	if d := envDuration("CREDORA_RATING_CACHE_TTL"); d > 0 {
		cfg.Rating.CacheTTL = d
	}
	if d := envDuration("CREDORA_RATING_SWEEP_INTERVAL"); d > 0 {
		cfg.Rating.SweepInterval = d
	}
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return value
}
