package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/laneboard/internal/redact"
)

// ErrorResponse is the standard shape for API error payloads.
type ErrorResponse struct {
	Error string `json:"error"`

	// Key carries the idempotency key on duplicate-request conflicts so
	// clients can correlate the rejection with the original submission.
	Key string `json:"key,omitempty"`

	// TraceID lets a user quote an identifier that support can match
	// against server logs.
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// RespondWithError writes a standardized JSON error response. The message is
// redacted before it leaves the process so SQL fragments, credentials, and
// similar internals never reach a client.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Error:   redact.String(message),
		TraceID: GetTraceID(r.Context()),
	}
	RespondWithJSON(w, status, resp)
}

// RespondWithConflict writes a 409 response carrying the idempotency key that
// collided, alongside the usual error message and trace ID.
func RespondWithConflict(w http.ResponseWriter, r *http.Request, message, key string) {
	resp := ErrorResponse{
		Error:   message,
		Key:     key,
		TraceID: GetTraceID(r.Context()),
	}
	RespondWithJSON(w, http.StatusConflict, resp)
}

// RespondWithErrorAndLog logs the underlying error with full detail and then
// sends the client a safe message. The logged error is redacted as well since
// log sinks are not trusted with raw driver output.
func RespondWithErrorAndLog(w http.ResponseWriter, r *http.Request, status int, safeMessage string, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"status", status,
		"path", r.URL.Path,
		"method", r.Method,
		"trace_id", GetTraceID(r.Context()),
	}
	if err != nil {
		attrs = append(attrs, "error", redact.Error(err))
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), safeMessage, attrs...)
	} else {
		logger.WarnContext(r.Context(), safeMessage, attrs...)
	}
	RespondWithError(w, r, status, safeMessage)
}
