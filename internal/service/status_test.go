package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/repository/memory"
	"github.com/msomdec/sena-auth/internal/service"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 4*time.Minute + 9*time.Second, "2h 4m 9s"},
		{3*24*time.Hour + 5*time.Hour + 7*time.Minute + 30*time.Second, "3d 5h 7m"},
	}
	for _, tc := range tests {
		if got := service.FormatUptime(tc.in); got != tc.want {
			t.Fatalf("FormatUptime(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStatusService_HealthyStore(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	auth := service.NewAuthService(db.Users(), service.NewBcryptHasher(4), service.NewJWTSigner(testJWTSecret, "", 0))
	status := service.NewStatusService(db)

	empty := status.DatabaseStatus(ctx)
	if !empty.Connected || empty.Status != service.DBStatusConnected {
		t.Fatalf("expected connected, got %+v", empty)
	}
	if empty.LastUserCreated != nil {
		t.Fatal("expected no last user on empty store")
	}

	for _, name := range []string{"first", "second"} {
		if _, err := auth.Register(ctx, name, "password123"); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	stats, err := status.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.UsersRegisteredToday != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.LastActivity == nil {
		t.Fatal("expected last activity to be set")
	}
	if stats.MemoryFootprint == "" || stats.ServiceUptime == "" {
		t.Fatalf("expected memory and uptime, got %+v", stats)
	}

	health, err := status.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != service.HealthHealthy {
		t.Fatalf("expected HEALTHY, got %+v", health)
	}
	if !health.Probe.CanRead || !health.Probe.CanWrite || health.Probe.Error != "" {
		t.Fatalf("unexpected probe %+v", health.Probe)
	}
	if health.Database.Driver != "memory" {
		t.Fatalf("expected memory driver, got %q", health.Database.Driver)
	}
}

func TestStatusService_ClosedStore(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	status := service.NewStatusService(db)
	db.Close()

	dbStatus := status.DatabaseStatus(ctx)
	if dbStatus.Connected || dbStatus.Status != service.DBStatusDisconnected {
		t.Fatalf("expected disconnected, got %+v", dbStatus)
	}

	probe := status.HealthCheck(ctx)
	if probe.CanRead || probe.CanWrite || probe.Error == "" {
		t.Fatalf("expected failed probe, got %+v", probe)
	}

	if _, err := status.Stats(ctx); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	health, err := status.Health(ctx)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Health, got %v", err)
	}
	if health.Status != service.HealthDegraded {
		t.Fatalf("expected DEGRADED, got %q", health.Status)
	}
}
