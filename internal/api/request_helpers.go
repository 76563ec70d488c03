package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/api/middleware"
	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/domain"
)

// getUserIDFromContext extracts the authenticated user ID placed in the
// context by the auth middleware. A missing ID means the route was wired
// without authentication; respond 401 and report failure.
func getUserIDFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID parses the named chi URL parameter as a UUID, responding 400 on
// a malformed value.
func getPathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("%s: %s", domain.ErrInvalidID.Error(), param))
		return uuid.Nil, false
	}
	return id, true
}

// handleUserIDAndPathUUID combines the two most common handler preludes.
func handleUserIDAndPathUUID(w http.ResponseWriter, r *http.Request, param string) (userID, pathID uuid.UUID, ok bool) {
	userID, ok = getUserIDFromContext(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	pathID, ok = getPathUUID(w, r, param)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, pathID, true
}
