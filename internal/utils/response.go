package utils

import (
	"encoding/json"
	"net/http"

	"github.com/jblukach/lunker/internal/logger"
	"go.uber.org/zap"
)

// NoCache marks a response as not storable. Every auth response carries it.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code, message string, status int) {
	NoCache(w)
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}
