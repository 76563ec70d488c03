package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SwimLane-specific validation errors
var (
	// ErrLaneIDEmpty is returned when a swimlane ID is empty or nil.
	ErrLaneIDEmpty = errors.New("swimlane ID cannot be empty")

	// ErrLaneNameEmpty is returned when a swimlane's name is empty.
	ErrLaneNameEmpty = errors.New("swimlane name cannot be empty")

	// ErrLaneOwnerEmpty is returned when a swimlane's owner ID is empty or nil.
	ErrLaneOwnerEmpty = errors.New("swimlane owner ID cannot be empty")
)

// SwimLane is a named column grouping that owns a set of tasks.
//
// Position is unique and dense among a user's non-deleted lanes. Deleting a
// lane is a soft delete: IsDeleted is set and the lane drops out of default
// listings; IsCompleted toggles independently of IsDeleted.
type SwimLane struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	IsCompleted bool      `json:"is_completed"`
	IsDeleted   bool      `json:"is_deleted"`
	Position    int       `json:"position"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSwimLane creates a new SwimLane owned by the given user, placed at the
// given position. It generates a new UUID for the lane ID and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewSwimLane(ownerID uuid.UUID, name string, position int) (*SwimLane, error) {
	lane := &SwimLane{
		ID:        uuid.New(),
		Name:      name,
		Position:  position,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := lane.Validate(); err != nil {
		return nil, err
	}

	return lane, nil
}

// Validate checks if the SwimLane has valid data.
// Returns an error if any field fails validation.
func (l *SwimLane) Validate() error {
	if l.ID == uuid.Nil {
		return ErrLaneIDEmpty
	}

	if l.Name == "" {
		return ErrLaneNameEmpty
	}

	if l.OwnerID == uuid.Nil {
		return ErrLaneOwnerEmpty
	}

	return nil
}

// IsOwnedBy reports whether the lane belongs to the given user.
func (l *SwimLane) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID == userID
}
