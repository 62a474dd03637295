// Copyright 2026 The Datagov Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig   `envPrefix:"SERVER_"`
	Database      DatabaseConfig `envPrefix:"DB_"`
	Redis         RedisConfig    `envPrefix:"REDIS_"`
	Session       SessionConfig  `envPrefix:"SESSION_"`
	Observability ObservabilityConfig
	Security      SecurityConfig  `envPrefix:"ARGON2_"`
	RateLimit     RateLimitConfig `envPrefix:"RATELIMIT_"`
	Jobs          JobsConfig      `envPrefix:"JOBS_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Environment     string        `env:"ENV" envDefault:"development"`
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	// Comma-separated list of allowed origins, e.g. "https://app.example.com"
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds database configuration. URL takes precedence over the
// discrete connection fields when set.
type DatabaseConfig struct {
	URL             string        `env:"URL"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"datagov"`
	Password        string        `env:"PASSWORD"`
	Database        string        `env:"NAME" envDefault:"datagov"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
}

// DSN returns a pgx connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   d.Database,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	q.Set("pool_max_conns", fmt.Sprintf("%d", d.MaxOpenConns))
	q.Set("pool_min_conns", fmt.Sprintf("%d", d.MaxIdleConns))
	q.Set("pool_max_conn_lifetime", d.ConnMaxLifetime.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds the principal cache connection. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PrincipalTTL time.Duration `env:"PRINCIPAL_TTL" envDefault:"5m"`
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// SessionConfig holds session management configuration
type SessionConfig struct {
	CookieName      string        `env:"COOKIE_NAME" envDefault:"datagov_session"`
	CookieDomain    string        `env:"COOKIE_DOMAIN"`
	CookiePath      string        `env:"COOKIE_PATH" envDefault:"/"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly  bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite  string        `env:"COOKIE_SAME_SITE" envDefault:"Lax"`
	Lifetime        time.Duration `env:"LIFETIME" envDefault:"24h"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"2h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"15m"`
}

// ObservabilityConfig holds logging, tracing and metrics configuration
type ObservabilityConfig struct {
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string  `env:"LOG_FORMAT" envDefault:"json"`
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"datagov"`
	ServiceVersion string  `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	SamplingRate   float64 `env:"OTEL_SAMPLING_RATE" envDefault:"1.0"`
}

// SecurityConfig holds argon2id password hashing parameters
type SecurityConfig struct {
	Argon2Memory      uint32 `env:"MEMORY" envDefault:"65536"`
	Argon2Iterations  uint32 `env:"ITERATIONS" envDefault:"3"`
	Argon2Parallelism uint8  `env:"PARALLELISM" envDefault:"4"`
	Argon2SaltLength  uint32 `env:"SALT_LENGTH" envDefault:"16"`
	Argon2KeyLength   uint32 `env:"KEY_LENGTH" envDefault:"32"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool    `env:"ENABLED" envDefault:"true"`
	RequestsPerSecond float64 `env:"RPS" envDefault:"10"`
	Burst             int     `env:"BURST" envDefault:"20"`
}

// JobsConfig controls the job run completion worker.
type JobsConfig struct {
	CompletionDelay time.Duration `env:"COMPLETION_DELAY" envDefault:"1s"`
	QueueSize       int           `env:"QUEUE_SIZE" envDefault:"256"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" && c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD or DB_URL is required"))
	}
	switch strings.ToLower(c.Observability.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Observability.LogFormat))
	}
	if c.Session.Lifetime <= 0 {
		errs = append(errs, errors.New("SESSION_LIFETIME must be positive"))
	}
	if c.Session.IdleTimeout < 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must not be negative"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATELIMIT_RPS and RATELIMIT_BURST must be positive"))
	}
	if c.Jobs.QueueSize <= 0 {
		errs = append(errs, errors.New("JOBS_QUEUE_SIZE must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_BODY_BYTES must be positive"))
	}

	return errors.Join(errs...)
}
