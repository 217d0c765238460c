package handler

// RESPONSE HELPERS:
// Every handler ends in one of two calls:
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "user not found with id abc123"}
// plus an optional "violations" list when validation failed more than once.
// The frontend always knows what fields to expect, whatever the status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/askbox/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error      string   `json:"error"`                // Machine-readable error type (e.g., "not_found")
	Message    string   `json:"message"`              // Human-readable description
	Field      string   `json:"field,omitempty"`      // Which input field failed, when known
	Violations []string `json:"violations,omitempty"` // Individual validation violations
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status code MUST be set before the body: once Encode writes,
// the headers are on the wire and any later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code.
//
// This is the ONLY place domain errors become status codes. The service
// layer returns apperror sentinels and knows nothing about HTTP; errors.Is
// walks the wrap chain (service wraps with fmt.Errorf("...: %w", appErr)),
// so the sentinel is found however deeply it is buried.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		case errors.Is(err, apperror.ErrRateLimited):
			status = http.StatusTooManyRequests // 429
			errorType = "rate_limited"
		}

		writeJSON(w, status, ErrorResponse{
			Error:      errorType,
			Message:    appErr.Message,
			Field:      appErr.Field,
			Violations: appErr.Violations,
		})
		return
	}

	// Unknown error — generic 500. The raw message might contain SQL or
	// file paths; never expose it to the client.
	slog.Error("unhandled internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
