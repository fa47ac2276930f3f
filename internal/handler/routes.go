package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/sena-auth/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, status *service.StatusService, tokenTTL time.Duration) {
	authHandler := NewAuthHandler(auth, tokenTTL)
	statusHandler := NewStatusHandler(status)

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /{$}", statusHandler.HandleHome)

	mux.HandleFunc("POST /auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleLogin)
	mux.HandleFunc("GET /auth/users", authHandler.HandleListUsers)
	mux.Handle("GET /auth/me", RequireAuth(auth, http.HandlerFunc(authHandler.HandleMe)))

	mux.HandleFunc("GET /auth/status", statusHandler.HandleStatus)
	mux.HandleFunc("GET /auth/ping", statusHandler.HandlePing)
	mux.HandleFunc("GET /auth/database/status", statusHandler.HandleDatabaseStatus)
	mux.HandleFunc("GET /auth/health", statusHandler.HandleHealth)
	mux.HandleFunc("GET /auth/stats", statusHandler.HandleStats)
	mux.HandleFunc("GET /auth/stats/live", statusHandler.HandleStatsLive)
	mux.HandleFunc("GET /auth/test-guide", statusHandler.HandleTestGuide)
}

// Wrap applies the middleware every route shares, outermost first.
func Wrap(h http.Handler, corsOrigin string) http.Handler {
	return RequestID(AccessLog(CORS(corsOrigin, SecurityHeaders(h))))
}
