// Package view renders the HTML status page.
//
//go:generate templ generate
package view

import (
	"time"

	"github.com/msomdec/sena-auth/internal/service"
)

// Endpoint is one row of the endpoint table.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Note   string `json:"note"`
}

// StatusPageData feeds StatusPage.
type StatusPageData struct {
	Service   string
	Version   string
	Endpoints []Endpoint
}

func lastActivity(stats service.Stats) string {
	if stats.LastActivity == nil {
		return "never"
	}
	return stats.LastActivity.Format(time.RFC3339)
}
