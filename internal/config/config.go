// Package config loads and validates client config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session storage backends accepted by SESSION_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// APIPrefix is appended to APIURL for every versioned backend endpoint.
const APIPrefix = "/api/v1"

// Config holds client configuration loaded from the environment.
type Config struct {
	// APIURL is the backend origin (e.g. http://localhost:8000), without the /api/v1 prefix.
	APIURL string `mapstructure:"API_URL"`
	// HTTPTimeout bounds each backend request (e.g. "15s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`

	// SessionBackend selects where the session record lives: file, memory, redis or postgres.
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	// SessionDir is the directory used by the file backend.
	SessionDir string `mapstructure:"SESSION_DIR"`
	RedisAddr  string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is optional.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	// DatabaseURL is the Postgres DSN; required when SessionBackend is postgres and by cmd/migrate.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// TokenVerifyKey is an optional PEM public key (inline or path). When set, access token
	// signatures are verified before their expiry is trusted.
	TokenVerifyKey string `mapstructure:"TOKEN_VERIFY_KEY"`

	// RoutePolicyFile is an optional Rego file or directory overriding the built-in route policy.
	RoutePolicyFile string `mapstructure:"ROUTE_POLICY_FILE"`
	// KeepaliveInterval is how often the backend is pinged (e.g. "14m"). "0" disables the pinger.
	KeepaliveInterval string `mapstructure:"KEEPALIVE_INTERVAL"`

	// OTLPEndpoint enables OTel export when set (host:port or URL).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated list of broker addresses; empty disables the producer.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SessionEventsTopic is the Kafka topic session events are written to.
	SessionEventsTopic string `mapstructure:"SESSION_EVENTS_TOPIC"`

	// Worker-only: Loki URL the session event worker pushes to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("API_URL", "http://localhost:8000")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("SESSION_BACKEND", BackendFile)
	v.SetDefault("SESSION_DIR", defaultSessionDir())
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_VERIFY_KEY", "")
	v.SetDefault("ROUTE_POLICY_FILE", "")
	v.SetDefault("KEEPALIVE_INTERVAL", "14m")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SESSION_EVENTS_TOPIC", "portfolio-session-events")
	v.SetDefault("KAFKA_GROUP_ID", "portfolio-session-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field combinations that Load cannot default away.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimSuffix(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return errors.New("config: API_URL must be set")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}

	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	switch c.SessionBackend {
	case "":
		c.SessionBackend = BackendFile
	case BackendFile, BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("config: SESSION_BACKEND must be one of file, memory, redis, postgres, got %q", c.SessionBackend)
	}
	if c.SessionBackend == BackendFile && c.SessionDir == "" {
		return errors.New("config: SESSION_DIR must be set for the file session backend")
	}
	if c.SessionBackend == BackendRedis && c.RedisAddr == "" {
		return errors.New("config: REDIS_ADDR must be set for the redis session backend")
	}
	if c.SessionBackend == BackendPostgres && c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set for the postgres session backend")
	}

	if _, err := time.ParseDuration(c.HTTPTimeout); c.HTTPTimeout != "" && err != nil {
		return fmt.Errorf("config: HTTP_TIMEOUT: %w", err)
	}
	if _, err := time.ParseDuration(c.KeepaliveInterval); c.KeepaliveInterval != "" && err != nil {
		return fmt.Errorf("config: KEEPALIVE_INTERVAL: %w", err)
	}
	if len(c.KafkaBrokersList()) > 0 && c.SessionEventsTopic == "" {
		return errors.New("config: SESSION_EVENTS_TOPIC must be set when KAFKA_BROKERS is set")
	}
	return nil
}

// APIBase returns the versioned API root, e.g. http://localhost:8000/api/v1.
func (c *Config) APIBase() string {
	return c.APIURL + APIPrefix
}

// RequestTimeout parses HTTPTimeout. Returns 15s if unset or invalid.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Keepalive parses KeepaliveInterval. Returns 0 when the pinger is disabled and
// 14m when the value is unset or invalid.
func (c *Config) Keepalive() time.Duration {
	if strings.TrimSpace(c.KeepaliveInterval) == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.KeepaliveInterval)
	if err != nil || d < 0 {
		return 14 * time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means session events are not published to Kafka.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
