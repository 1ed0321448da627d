// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN; required by server, migrate, and seed.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis host:port for the resolution cache (e.g. localhost:6379).
	// Empty falls back to the in-memory cache (single-process development only).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis AUTH password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the Redis logical database number.
	RedisDB int `mapstructure:"REDIS_DB"`
	// FlagCacheTTL is how long resolved feature flags stay cached (e.g. "60s").
	FlagCacheTTL string `mapstructure:"FLAG_CACHE_TTL"`
	// PolicyCacheTTL is how long resolved policies stay cached (e.g. "120s").
	PolicyCacheTTL string `mapstructure:"POLICY_CACHE_TTL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// ChangelogKafkaBrokers is a comma-separated list of Kafka broker addresses
	// (e.g. "localhost:9092"). When set, writes emit change events to Kafka.
	ChangelogKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// ChangelogKafkaTopic is the Kafka topic for change events (default confplane-changelog).
	ChangelogKafkaTopic string `mapstructure:"CHANGELOG_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the changelog worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is the Loki base URL the worker pushes change events to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("FLAG_CACHE_TTL", "60s")
	v.SetDefault("POLICY_CACHE_TTL", "120s")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("CHANGELOG_KAFKA_TOPIC", "confplane-changelog")
	v.SetDefault("KAFKA_GROUP_ID", "confplane-changelog-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.Env == "production" && cfg.RedisAddr == "" {
		return nil, errors.New("config: REDIS_ADDR must be set when APP_ENV=production; the in-memory cache is single-process")
	}

	return &cfg, nil
}

// FlagTTL parses FlagCacheTTL as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) FlagTTL() time.Duration {
	d, err := time.ParseDuration(c.FlagCacheTTL)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// PolicyTTL parses PolicyCacheTTL as a time.Duration. Returns 120s if unset or invalid.
func (c *Config) PolicyTTL() time.Duration {
	d, err := time.ParseDuration(c.PolicyCacheTTL)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if change events are enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.ChangelogKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.ChangelogKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
