package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth     *service.AuthService
	tokenTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler. tokenTTL is reported to
// clients as expires_in.
func NewAuthHandler(auth *service.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, tokenTTL: tokenTTL}
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"username":"...","password":"..."}
// Response: 201 {"message":"...","user":{...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := req.ValidateRegistration(); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			writeError(w, http.StatusConflict, "A user with that username already exists.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeValidationError(w, err)
		default:
			writeServiceError(w, r, "register user", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully.",
		User:    toUserDTO(user),
	})
}

// HandleLogin processes a JSON login request.
// POST /auth/login
// Request:  {"username":"...","password":"..."}
// Response: 200 {"message":"...","user":{...},"access_token":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := req.ValidateLogin(); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Authentication failed. Invalid username or password.")
			return
		}
		writeServiceError(w, r, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "Authentication successful.",
		User:        toUserDTO(result.User),
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL / time.Second),
	})
}

// HandleListUsers returns every registered user.
// GET /auth/users
// Response: {"message":"...","total":N,"users":[...]}
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Message: "Registered users.",
		Total:   len(users),
		Users:   toUserDTOs(users),
	})
}

// HandleMe returns the user the bearer token was issued for.
// GET /auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  "Validation failed.",
			Errors: verr.Fields,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// writeServiceError maps store outages to 503 and anything else to 500.
// Neither response carries the underlying error text.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "The service is temporarily unavailable. Please try again.")
		return
	}
	slog.ErrorContext(r.Context(), op, "error", err)
	writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
}
