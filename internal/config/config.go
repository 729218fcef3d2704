// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the service configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port string `env:"APP_PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// File path for a rotated JSON copy of the log (empty disables it)
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE" envDefault:"30"`
}

// DatabaseConfig holds the membership database settings.
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

// RedisConfig holds the session store settings.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// AuthConfig holds credential verification settings.
type AuthConfig struct {
	JWTSecret     string `env:"AUTH_JWT_SECRET"`
	JWTIssuer     string `env:"AUTH_JWT_ISSUER" envDefault:"carehub"`
	SessionCookie string `env:"AUTH_SESSION_COOKIE" envDefault:"carehub_session"`

	// DefaultTenantID is substituted for non-super-admin principals without a tenant.
	// Empty rejects them.
	DefaultTenantID string `env:"AUTH_DEFAULT_TENANT_ID"`

	UpstreamTimeout time.Duration `env:"AUTH_UPSTREAM_TIMEOUT" envDefault:"3s"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	} else if len(c.Auth.JWTSecret) < 32 && !c.IsDevelopment() {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 bytes outside development"))
	}
	if c.Auth.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_UPSTREAM_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
