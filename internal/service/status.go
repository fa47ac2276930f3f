package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/msomdec/sena-auth/internal/domain"
)

const (
	ServiceName    = "SENA Auth Service"
	ServiceVersion = "1.0.0"
)

const (
	DBStatusConnected    = "CONNECTED"
	DBStatusDisconnected = "DISCONNECTED"

	HealthHealthy  = "HEALTHY"
	HealthDegraded = "DEGRADED"
)

// DatabaseStatus describes connectivity and contents of the store.
type DatabaseStatus struct {
	Driver          string
	Status          string
	Connected       bool
	TotalUsers      int
	Uptime          string
	LastUserCreated *time.Time
	MemoryUsage     string
}

// Stats summarises registrations and process state.
type Stats struct {
	TotalUsers           int
	ServiceUptime        string
	DatabaseStatus       string
	LastActivity         *time.Time
	UsersRegisteredToday int
	MemoryFootprint      string
}

// Probe is the outcome of a read and a write against the store.
type Probe struct {
	CanRead      bool
	CanWrite     bool
	ResponseTime time.Duration
	Error        string
}

// Health combines the status, stats and probe results.
type Health struct {
	Status   string
	Database DatabaseStatus
	Stats    Stats
	Probe    Probe
}

// StatusService reports on the store and the running process.
type StatusService struct {
	db        domain.Database
	startedAt time.Time
	now       func() time.Time
}

// NewStatusService creates a StatusService; uptime counts from this call.
func NewStatusService(db domain.Database) *StatusService {
	return &StatusService{
		db:        db,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Uptime returns the formatted time since the service started.
func (s *StatusService) Uptime() string {
	return FormatUptime(s.now().Sub(s.startedAt))
}

// DatabaseStatus never fails; an unreachable store is reported as
// disconnected.
func (s *StatusService) DatabaseStatus(ctx context.Context) DatabaseStatus {
	status := DatabaseStatus{
		Driver:      s.db.Driver(),
		Status:      DBStatusDisconnected,
		Uptime:      s.Uptime(),
		MemoryUsage: memoryUsage(),
	}

	if err := s.db.Ping(ctx); err != nil {
		return status
	}

	users := s.db.Users()
	total, err := users.Count(ctx)
	if err != nil {
		return status
	}
	status.Status = DBStatusConnected
	status.Connected = true
	status.TotalUsers = total

	if last, err := users.MostRecent(ctx); err == nil {
		created := last.CreatedAt
		status.LastUserCreated = &created
	}
	return status
}

// Stats counts users overall and since local midnight.
func (s *StatusService) Stats(ctx context.Context) (Stats, error) {
	dbStatus := s.DatabaseStatus(ctx)
	users := s.db.Users()

	total, err := users.Count(ctx)
	if err != nil {
		return Stats{}, unavailable(ctx, "count users", err)
	}

	today, err := users.CountSince(ctx, startOfDay(s.now()))
	if err != nil {
		return Stats{}, unavailable(ctx, "count users today", err)
	}

	return Stats{
		TotalUsers:           total,
		ServiceUptime:        dbStatus.Uptime,
		DatabaseStatus:       dbStatus.Status,
		LastActivity:         dbStatus.LastUserCreated,
		UsersRegisteredToday: today,
		MemoryFootprint:      dbStatus.MemoryUsage,
	}, nil
}

// HealthCheck reads from and writes to the store and times both.
func (s *StatusService) HealthCheck(ctx context.Context) Probe {
	start := s.now()
	var probe Probe
	var errs []error

	if _, err := s.db.Users().Count(ctx); err != nil {
		errs = append(errs, fmt.Errorf("read: %w", domain.ErrStoreUnavailable))
	} else {
		probe.CanRead = true
	}

	if err := s.db.ProbeWrite(ctx); err != nil {
		errs = append(errs, fmt.Errorf("write: %w", domain.ErrStoreUnavailable))
	} else {
		probe.CanWrite = true
	}

	if err := errors.Join(errs...); err != nil {
		probe.Error = err.Error()
	}
	probe.ResponseTime = s.now().Sub(start)
	return probe
}

// Health runs the status, stats and probe checks concurrently. It fails
// only when stats cannot be gathered.
func (s *StatusService) Health(ctx context.Context) (Health, error) {
	var h Health
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h.Database = s.DatabaseStatus(gctx)
		return nil
	})
	g.Go(func() error {
		stats, err := s.Stats(gctx)
		if err != nil {
			return err
		}
		h.Stats = stats
		return nil
	})
	g.Go(func() error {
		h.Probe = s.HealthCheck(gctx)
		return nil
	})

	err := g.Wait()

	h.Status = HealthDegraded
	if err == nil && h.Database.Connected && h.Probe.CanRead && h.Probe.CanWrite {
		h.Status = HealthHealthy
	}
	return h, err
}

// FormatUptime renders d as "Nd Nh Nm", "Nh Nm Ns", "Nm Ns" or "Ns",
// whichever is the largest unit present.
func FormatUptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours%24, minutes%60)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes%60, seconds%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func memoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return humanize.Bytes(m.HeapAlloc)
}
