package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/sena-auth/internal/app"
	"github.com/msomdec/sena-auth/internal/config"
	"github.com/msomdec/sena-auth/internal/handler"
	"github.com/msomdec/sena-auth/internal/logging"
	"github.com/msomdec/sena-auth/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(logging.New(level, os.Stdout, os.Stderr))

	db, err := app.OpenDatabase(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database migrations applied", "driver", db.Driver())

	svc := app.NewServices(cfg, db)

	if cfg.SeedAdminUsername != "" {
		if err := app.SeedAdmin(context.Background(), svc.Auth, cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
			slog.Error("failed to seed admin account", "error", err)
			os.Exit(1)
		}
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, svc.Auth, svc.Status, svc.TokenTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Wrap(mux, cfg.CORSAllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "service", service.ServiceName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
