// Package handlers provides the HTTP handlers for the load sync web service.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/brokerlink/loadsync/internal/config"
)

// Environments gives handlers access to the configured integration
// targets. Implemented by config.Manager.
type Environments interface {
	Environments() []config.Environment
	Environment(name string) (config.Environment, bool)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

func errorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status_code": status,
		"message":     message,
	})
}
