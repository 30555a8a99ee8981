// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Version is the service version recorded by the install check.
// Overridden at build time with -ldflags "-X .../config.Version=...".
var Version = "1.0.0"

// Per-user attribute backends.
const (
	MetaStorePostgres = "postgres"
	MetaStoreRedis    = "redis"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// Cache and sessions (Redis)
	RedisURL      string `env:"REDIS_URL,required"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Public storefront URL used to build account links
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Host platform schema version; selects the dashboard hook point
	PlatformVersion string `env:"PLATFORM_VERSION" envDefault:"3.0.0"`

	// Shared secret for signed platform events. Empty disables the endpoint.
	WebhookSecret       string        `env:"WEBHOOK_SECRET"`
	WebhookReplayWindow time.Duration `env:"WEBHOOK_REPLAY_WINDOW" envDefault:"5m"`

	// Where the linked-orders attribute lives: postgres or redis
	MetaStore string `env:"META_STORE" envDefault:"postgres"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// In-process counters served at /api/v1/admin/metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Comma-separated order statuses never linked to new accounts
	LinkExcludedStatuses string `env:"LINK_EXCLUDED_STATUSES" envDefault:"checkout-draft"`

	// Language for notices when Accept-Language matches nothing
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ExcludedStatuses parses LinkExcludedStatuses into a slice.
func (c *Config) ExcludedStatuses() []string {
	return splitList(c.LinkExcludedStatuses)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.MetaStore {
	case MetaStorePostgres, MetaStoreRedis:
	default:
		return fmt.Errorf("META_STORE must be %q or %q, got %q", MetaStorePostgres, MetaStoreRedis, c.MetaStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d), got %d", c.DBMaxConns, c.DBMinConns)
	}
	if c.WebhookReplayWindow <= 0 {
		return fmt.Errorf("WEBHOOK_REPLAY_WINDOW must be positive")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.MetaStore = strings.ToLower(strings.TrimSpace(cfg.MetaStore))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
