package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/idempotency"
	"github.com/phrazzld/laneboard/internal/service"
	"github.com/phrazzld/laneboard/internal/service/auth"
	"github.com/phrazzld/laneboard/internal/store"
)

// MapErrorToStatusCode maps domain, store, service, and auth errors to the
// HTTP status code the API contract promises for them.
func MapErrorToStatusCode(err error) int {
	switch {
	case idempotency.IsDuplicate(err):
		return http.StatusConflict

	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, domain.ErrCommentNotFound),
		errors.Is(err, service.ErrLaneDeleted):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrTaskNameEmpty),
		errors.Is(err, domain.ErrCommentTextEmpty),
		errors.Is(err, domain.ErrLaneNameEmpty),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message safe to show the client. Errors with
// well-known mappings pass their text through; everything else collapses to a
// generic message so internals never leak.
func GetSafeErrorMessage(err error) string {
	status := MapErrorToStatusCode(err)
	if status == http.StatusInternalServerError {
		return "an internal error occurred"
	}
	return err.Error()
}

// HandleAPIError is the single exit path for handler errors: it maps err to a
// status code, logs server-side failures, and writes the response. Duplicate
// submissions additionally carry the colliding idempotency key in the body.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var dup *idempotency.DuplicateError
	if errors.As(err, &dup) {
		shared.RespondWithConflict(w, r, "duplicate request in flight", dup.Key)
		return
	}

	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)

	if status >= http.StatusInternalServerError {
		shared.RespondWithErrorAndLog(w, r, status, msg, err, logger)
		return
	}
	shared.RespondWithError(w, r, status, msg)
}
