// Package httpx holds the small HTTP helpers shared by every module's handlers.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// Error writes an ErrorBody with the given status.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorBody{Error: message, Kind: kind})
}

// Internal logs err and writes a generic 500.
func Internal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
	Error(w, http.StatusInternalServerError, "storage_failure", "internal error")
}

// DecodeJSON decodes a bounded request body into dst, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
