// Package middleware provides HTTP middleware for the field records API.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes err as a JSON error response, choosing the status from
// its kind. Internal errors are logged and their cause is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.Code(err)
	message := apperrors.MessageOf(err)
	if code == "internal" {
		slog.Error("Request failed.", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "An unexpected error occurred"
	}
	writeJSONError(w, apperrors.HTTPStatus(err), code, message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

// ErrorRecovery is middleware that recovers from panics and returns a 500 error.
func ErrorRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Panic recovered.", "panic", rec, "stack", string(debug.Stack()))
				writeJSONError(w, http.StatusInternalServerError, "internal", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
