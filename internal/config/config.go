// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	minSecretLength = 32
	minBcryptCost   = 4
	maxBcryptCost   = 14
)

// Config holds runtime settings for the server.
type Config struct {
	Port              string        `env:"PORT" envDefault:"3001"`
	DatabaseDriver    string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabasePath      string        `env:"DATABASE_PATH" envDefault:"sena-auth.db"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	JWTSecret         string        `env:"JWT_SECRET,required"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"sena-auth-service"`
	JWTTTL            time.Duration `env:"JWT_TTL" envDefault:"1h"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSAllowedOrigin string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`

	// Optional first account, created at startup if absent.
	SeedAdminUsername string `env:"SEED_ADMIN_USERNAME"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	return LoadFrom(env.Options{})
}

// LoadFrom parses with explicit options; tests pass Environment to avoid
// touching the process environment.
func LoadFrom(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", nameVariables(err))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// nameVariables rewrites field parse failures from env, which name the
// struct field, in terms of the environment variable.
func nameVariables(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return err
	}

	errs := make([]error, len(agg.Errors))
	for i, e := range agg.Errors {
		errs[i] = e
		var perr env.ParseError
		if !errors.As(e, &perr) {
			continue
		}
		if field, ok := reflect.TypeFor[Config]().FieldByName(perr.Name); ok {
			key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
			errs[i] = fmt.Errorf("%s: invalid value: %w", key, perr.Err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minSecretLength))
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, c.BcryptCost))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be one of sqlite, postgres, memory; got %q", c.DatabaseDriver))
	}

	if (c.SeedAdminUsername == "") != (c.SeedAdminPassword == "") {
		errs = append(errs, errors.New("SEED_ADMIN_USERNAME and SEED_ADMIN_PASSWORD must be set together"))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
