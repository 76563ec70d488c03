package api

import "github.com/google/uuid"

// RegisterRequest contains the data needed for user registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest contains the data needed for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the authentication result returned to the client.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// CreateLaneRequest creates a new swimlane at the end of the board.
type CreateLaneRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpdateLaneRequest renames an existing swimlane.
type UpdateLaneRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ReorderLanesRequest assigns each listed lane its index as its new position.
type ReorderLanesRequest struct {
	OrderedIDs []uuid.UUID `json:"ordered_ids" validate:"required,min=1"`
}

// CreateTaskRequest creates a task in a lane's status column.
type CreateTaskRequest struct {
	SwimLaneID uuid.UUID `json:"swim_lane_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=255"`
	Status     string    `json:"status" validate:"omitempty,oneof=todo in_progress done blocked"`
	Tags       []string  `json:"tags" validate:"omitempty,dive,max=64"`
}

// UpdateTaskRequest renames a task and replaces its tags.
type UpdateTaskRequest struct {
	Name string   `json:"name" validate:"required,max=255"`
	Tags []string `json:"tags" validate:"omitempty,dive,max=64"`
}

// MoveTaskRequest relocates a task to a lane and status column. Position is
// optional; when omitted the task is appended to the destination column.
type MoveTaskRequest struct {
	SwimLaneID uuid.UUID `json:"swim_lane_id" validate:"required"`
	Status     string    `json:"status" validate:"required,oneof=todo in_progress done blocked"`
	Position   *int      `json:"position" validate:"omitempty,min=0"`
}

// CommentRequest carries the text for adding or editing a task comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
