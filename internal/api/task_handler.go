package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/service"
)

// TaskHandler handles task and comment operations.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With("component", "task_handler"),
	}
}

// ListBySwimLane handles GET /api/tasks/swimlane/{laneID}, returning the
// lane's tasks ordered by status column and position.
func (h *TaskHandler) ListBySwimLane(w http.ResponseWriter, r *http.Request) {
	userID, laneID, ok := handleUserIDAndPathUUID(w, r, "laneID")
	if !ok {
		return
	}

	tasks, err := h.tasks.ListLaneTasks(r.Context(), userID, laneID)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/tasks/{taskID}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusOK, task)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), userID, req.SwimLaneID, req.Name,
		domain.TaskStatus(req.Status), req.Tags)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusCreated, task)
}

// Update handles PUT /api/tasks/{taskID}. The 202 body reflects the
// optimistic state; persistence happens on the write queue.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), userID, taskID, req.Name, req.Tags)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, task)
}

// Delete handles DELETE /api/tasks/{taskID}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Move handles PATCH /api/tasks/{taskID}/move.
func (h *TaskHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.MoveTask(r.Context(), userID, taskID, req.SwimLaneID,
		domain.TaskStatus(req.Status), req.Position)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, task)
}

// AddComment handles POST /api/tasks/{taskID}/comments.
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req CommentRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.AddComment(r.Context(), userID, taskID, req.Text)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, task)
}

// UpdateComment handles PUT /api/tasks/{taskID}/comments/{commentID}.
func (h *TaskHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}
	commentID, ok := getPathUUID(w, r, "commentID")
	if !ok {
		return
	}

	var req CommentRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.UpdateComment(r.Context(), userID, taskID, commentID, req.Text)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, task)
}

// DeleteComment handles DELETE /api/tasks/{taskID}/comments/{commentID}.
// Deleting a comment that no longer exists succeeds.
func (h *TaskHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}
	commentID, ok := getPathUUID(w, r, "commentID")
	if !ok {
		return
	}

	task, err := h.tasks.DeleteComment(r.Context(), userID, taskID, commentID)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}
	shared.RespondWithJSON(w, http.StatusAccepted, task)
}
