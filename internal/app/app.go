// Package app assembles the store and services from configuration. Both
// the server and authctl start through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msomdec/sena-auth/internal/config"
	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/repository/memory"
	"github.com/msomdec/sena-auth/internal/repository/postgres"
	"github.com/msomdec/sena-auth/internal/repository/sqlite"
	"github.com/msomdec/sena-auth/internal/service"
)

// OpenDatabase opens the configured store and applies its migrations.
func OpenDatabase(ctx context.Context, cfg config.Config) (domain.Database, error) {
	var (
		db  domain.Database
		err error
	)
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err = sqlite.New(cfg.DatabasePath)
	case config.DriverPostgres:
		db, err = postgres.New(ctx, cfg.DatabaseURL)
	case config.DriverMemory:
		db = memory.New()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseDriver, err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", cfg.DatabaseDriver, err)
	}
	return db, nil
}

// Services are the long-lived services built on one store.
type Services struct {
	Auth     *service.AuthService
	Status   *service.StatusService
	TokenTTL time.Duration
}

// NewServices wires the hasher and signer from cfg into the services.
func NewServices(cfg config.Config, db domain.Database) Services {
	signer := service.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	return Services{
		Auth:     service.NewAuthService(db.Users(), service.NewBcryptHasher(cfg.BcryptCost), signer),
		Status:   service.NewStatusService(db),
		TokenTTL: signer.TTL(),
	}
}

// SeedAdmin registers username unless it already exists. The credentials
// go through the same validation as a public registration.
func SeedAdmin(ctx context.Context, auth *service.AuthService, username, password string) error {
	creds := domain.Credentials{Username: username, Password: password}
	if err := creds.ValidateRegistration(); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	profile, err := auth.Register(ctx, username, password)
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		slog.InfoContext(ctx, "seed admin already present", "username", username)
		return nil
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.InfoContext(ctx, "seed admin created", "username", profile.Username, "id", profile.ID)
	return nil
}
