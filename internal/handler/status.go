package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/sena-auth/internal/service"
	"github.com/msomdec/sena-auth/internal/view"
)

// Endpoints is the public route table, served by the test guide and the
// status page.
var Endpoints = []view.Endpoint{
	{Method: "GET", Path: "/auth/ping", Note: "connectivity"},
	{Method: "GET", Path: "/auth/status", Note: "service status"},
	{Method: "GET", Path: "/auth/health", Note: "full health check"},
	{Method: "GET", Path: "/auth/database/status", Note: "database status"},
	{Method: "GET", Path: "/auth/stats", Note: "statistics"},
	{Method: "POST", Path: "/auth/register", Note: "register a user"},
	{Method: "POST", Path: "/auth/login", Note: "log in and receive a token"},
	{Method: "GET", Path: "/auth/users", Note: "list users"},
	{Method: "GET", Path: "/auth/me", Note: "current user (bearer token)"},
}

// StatusHandler serves the status, health and statistics endpoints.
type StatusHandler struct {
	status *service.StatusService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(status *service.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

// HandleStatus GET /auth/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Authentication service is running.",
		"version":   service.ServiceVersion,
		"timestamp": timestamp(),
	})
}

// HandlePing GET /auth/ping
func (h *StatusHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "pong",
		"timestamp": timestamp(),
		"service":   service.ServiceName,
		"version":   service.ServiceVersion,
	})
}

// HandleDatabaseStatus GET /auth/database/status
func (h *StatusHandler) HandleDatabaseStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Database status.",
		"timestamp": timestamp(),
		"database":  toDatabaseStatusDTO(h.status.DatabaseStatus(r.Context())),
	})
}

// HandleStats GET /auth/stats
func (h *StatusHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.status.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, "stats", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "System statistics.",
		"timestamp":  timestamp(),
		"statistics": toStatsDTO(stats),
	})
}

// HandleHealth GET /auth/health
// Responds 200 when healthy and 503 when degraded.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.status.Health(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "health check degraded", "error", err)
	}

	var probeErr *string
	if health.Probe.Error != "" {
		probeErr = &health.Probe.Error
	}

	resp := HealthResponse{
		Message:   "System health check.",
		Timestamp: timestamp(),
		Status:    health.Status,
		Services: HealthServices{
			Database: DatabaseHealthDTO{
				Status:       health.Database.Status,
				Connected:    health.Database.Connected,
				ResponseTime: health.Probe.ResponseTime.Round(time.Microsecond).String(),
				CanRead:      health.Probe.CanRead,
				CanWrite:     health.Probe.CanWrite,
				Error:        probeErr,
			},
			Authentication: AuthenticationHealthDTO{
				Status: "ACTIVE",
				Uptime: health.Database.Uptime,
			},
			UserManagement: UserManagementHealthDTO{
				Status:          "ACTIVE",
				TotalUsers:      health.Stats.TotalUsers,
				RegisteredToday: health.Stats.UsersRegisteredToday,
				MemoryUsage:     health.Database.MemoryUsage,
			},
		},
		LastActivity: formatOptionalTime(health.Stats.LastActivity),
	}

	code := http.StatusOK
	if health.Status != service.HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// HandleTestGuide GET /auth/test-guide
// Lists the endpoints with example request bodies.
func (h *StatusHandler) HandleTestGuide(w http.ResponseWriter, r *http.Request) {
	example := map[string]string{"username": "testuser123", "password": "password123"}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Endpoint guide.",
		"endpoints": Endpoints,
		"examples": map[string]any{
			"register": map[string]any{"url": "POST /auth/register", "body": example},
			"login":    map[string]any{"url": "POST /auth/login", "body": example},
		},
		"baseUrl": baseURL(r),
	})
}

// HandleStatsLive GET /auth/stats/live
// Patches the #stats-panel element on the status page over SSE.
func (h *StatusHandler) HandleStatsLive(w http.ResponseWriter, r *http.Request) {
	stats, err := h.status.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, "live stats", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.StatsPanel(stats)); err != nil {
		slog.WarnContext(r.Context(), "patch stats panel", "error", err)
	}
}

// HandleHome renders the HTML status page.
func (h *StatusHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := view.StatusPage(view.StatusPageData{
		Service:   service.ServiceName,
		Version:   service.ServiceVersion,
		Endpoints: Endpoints,
	}).Render(r.Context(), w)
	if err != nil {
		slog.ErrorContext(r.Context(), "render status page", "error", err)
	}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
