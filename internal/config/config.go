// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the filmclub server configuration. Command-line flags override
// individual fields after Load.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `env:"FILMCLUB_DB_PATH" envDefault:"filmclub.db"`

	// ListenAddr is the webhook listen address.
	ListenAddr string `env:"FILMCLUB_LISTEN_ADDR" envDefault:":8080"`

	// PublicKey is the hex-encoded Ed25519 key of the Discord application.
	PublicKey string `env:"FILMCLUB_PUBLIC_KEY"`

	// MaxConflictRetries bounds how often a command is re-run after losing
	// a race with a concurrent request.
	MaxConflictRetries int `env:"FILMCLUB_MAX_CONFLICT_RETRIES" envDefault:"3"`

	// ShutdownTimeout bounds the graceful shutdown of the webhook server.
	ShutdownTimeout time.Duration `env:"FILMCLUB_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	Telemetry Telemetry
}

// Telemetry configures trace export.
type Telemetry struct {
	// Enabled turns on OTLP trace export.
	Enabled bool `env:"FILMCLUB_OTEL_ENABLED" envDefault:"false"`

	// Endpoint is the OTLP/HTTP traces URL, e.g. http://localhost:4318/v1/traces.
	Endpoint string `env:"FILMCLUB_OTEL_ENDPOINT" envDefault:"http://localhost:4318/v1/traces"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `env:"FILMCLUB_OTEL_SERVICE_NAME" envDefault:"filmclub"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateServe checks the fields the webhook server needs.
func (c Config) ValidateServe() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.PublicKey == "" {
		errs = append(errs, errors.New("public key is required (FILMCLUB_PUBLIC_KEY)"))
	}
	if c.MaxConflictRetries < 0 {
		errs = append(errs, fmt.Errorf("max conflict retries must not be negative, got %d", c.MaxConflictRetries))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, errors.New("telemetry endpoint is required when telemetry is enabled"))
	}
	return errors.Join(errs...)
}
