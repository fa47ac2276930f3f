package handler

import (
	"net/http"
)

// HandleHealthz is a liveness probe; it does not touch the store.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
