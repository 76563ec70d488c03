package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/service"
	"github.com/phrazzld/laneboard/internal/store"
)

// SwimLaneHandler handles swimlane board operations.
type SwimLaneHandler struct {
	lanes  service.SwimLaneService
	logger *slog.Logger
}

// NewSwimLaneHandler creates a new SwimLaneHandler.
func NewSwimLaneHandler(lanes service.SwimLaneService, logger *slog.Logger) *SwimLaneHandler {
	return &SwimLaneHandler{
		lanes:  lanes,
		logger: logger.With("component", "swimlane_handler"),
	}
}

// List handles GET /api/lanes, returning the user's active (not completed)
// lanes in board order.
func (h *SwimLaneHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	lanes, err := h.lanes.ListLanes(r.Context(), userID, store.LaneFilterActive)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusOK, lanes)
}

// ListCompleted handles GET /api/lanes/completed.
func (h *SwimLaneHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	lanes, err := h.lanes.ListLanes(r.Context(), userID, store.LaneFilterCompleted)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusOK, lanes)
}

// Get handles GET /api/lanes/{laneID}.
func (h *SwimLaneHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, laneID, ok := handleUserIDAndPathUUID(w, r, "laneID")
	if !ok {
		return
	}

	lane, err := h.lanes.GetLane(r.Context(), userID, laneID)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusOK, lane)
}

// Create handles POST /api/lanes.
func (h *SwimLaneHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	var req CreateLaneRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	lane, err := h.lanes.CreateLane(r.Context(), userID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusCreated, lane)
}

// Rename handles PUT /api/lanes/{laneID}. The rename is applied on the
// write queue; the 202 body is the optimistic lane state.
func (h *SwimLaneHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, laneID, ok := handleUserIDAndPathUUID(w, r, "laneID")
	if !ok {
		return
	}

	var req UpdateLaneRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	lane, err := h.lanes.RenameLane(r.Context(), userID, laneID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, lane)
}

// Complete handles POST /api/lanes/{laneID}/complete.
func (h *SwimLaneHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, laneID, ok := handleUserIDAndPathUUID(w, r, "laneID")
	if !ok {
		return
	}

	lane, err := h.lanes.CompleteLane(r.Context(), userID, laneID)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, lane)
}

// Uncomplete handles POST /api/lanes/{laneID}/uncomplete.
func (h *SwimLaneHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	userID, laneID, ok := handleUserIDAndPathUUID(w, r, "laneID")
	if !ok {
		return
	}

	lane, err := h.lanes.UncompleteLane(r.Context(), userID, laneID)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, lane)
}

// Delete handles DELETE /api/lanes/{laneID}. The lane is soft-deleted; the
// write is applied asynchronously, so a 202 acknowledges acceptance.
func (h *SwimLaneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, laneID, ok := handleUserIDAndPathUUID(w, r, "laneID")
	if !ok {
		return
	}

	if err := h.lanes.DeleteLane(r.Context(), userID, laneID); err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Reorder handles PUT /api/lanes/reorder.
func (h *SwimLaneHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	var req ReorderLanesRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.lanes.ReorderLanes(r.Context(), userID, req.OrderedIDs); err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
