package handler

import (
	"time"

	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/service"
)

// UserDTO is the JSON representation of a user. It has no password field.
type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(p domain.Profile) UserDTO {
	return UserDTO{
		ID:        p.ID,
		Username:  p.Username,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toUserDTOs(profiles []domain.Profile) []UserDTO {
	dtos := make([]UserDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toUserDTO(p)
	}
	return dtos
}

type RegisterResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

type LoginResponse struct {
	Message     string  `json:"message"`
	User        UserDTO `json:"user"`
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
}

type UserListResponse struct {
	Message string    `json:"message"`
	Total   int       `json:"total"`
	Users   []UserDTO `json:"users"`
}

// ValidationErrorResponse lists per-field problems.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

type DatabaseStatusDTO struct {
	Driver          string  `json:"driver"`
	Status          string  `json:"status"`
	Connected       bool    `json:"connected"`
	TotalUsers      int     `json:"totalUsers"`
	Uptime          string  `json:"uptime"`
	LastUserCreated *string `json:"lastUserCreated"`
	MemoryUsage     string  `json:"memoryUsage"`
}

func toDatabaseStatusDTO(s service.DatabaseStatus) DatabaseStatusDTO {
	return DatabaseStatusDTO{
		Driver:          s.Driver,
		Status:          s.Status,
		Connected:       s.Connected,
		TotalUsers:      s.TotalUsers,
		Uptime:          s.Uptime,
		LastUserCreated: formatOptionalTime(s.LastUserCreated),
		MemoryUsage:     s.MemoryUsage,
	}
}

type StatsDTO struct {
	TotalUsers           int     `json:"totalUsers"`
	ServiceUptime        string  `json:"serviceUptime"`
	DatabaseStatus       string  `json:"databaseStatus"`
	LastActivity         *string `json:"lastActivity"`
	UsersRegisteredToday int     `json:"usersRegisteredToday"`
	MemoryFootprint      string  `json:"memoryFootprint"`
}

func toStatsDTO(s service.Stats) StatsDTO {
	return StatsDTO{
		TotalUsers:           s.TotalUsers,
		ServiceUptime:        s.ServiceUptime,
		DatabaseStatus:       s.DatabaseStatus,
		LastActivity:         formatOptionalTime(s.LastActivity),
		UsersRegisteredToday: s.UsersRegisteredToday,
		MemoryFootprint:      s.MemoryFootprint,
	}
}

type HealthResponse struct {
	Message      string         `json:"message"`
	Timestamp    string         `json:"timestamp"`
	Status       string         `json:"status"`
	Services     HealthServices `json:"services"`
	LastActivity *string        `json:"lastActivity"`
}

type HealthServices struct {
	Database       DatabaseHealthDTO       `json:"database"`
	Authentication AuthenticationHealthDTO `json:"authentication"`
	UserManagement UserManagementHealthDTO `json:"userManagement"`
}

type DatabaseHealthDTO struct {
	Status       string  `json:"status"`
	Connected    bool    `json:"connected"`
	ResponseTime string  `json:"responseTime"`
	CanRead      bool    `json:"canRead"`
	CanWrite     bool    `json:"canWrite"`
	Error        *string `json:"error"`
}

type AuthenticationHealthDTO struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

type UserManagementHealthDTO struct {
	Status          string `json:"status"`
	TotalUsers      int    `json:"totalUsers"`
	RegisteredToday int    `json:"registeredToday"`
	MemoryUsage     string `json:"memoryUsage"`
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
