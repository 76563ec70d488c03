package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/laneboard/internal/domain"
)

// LaneFilter selects which swimlanes a listing returns.
// Soft-deleted lanes are excluded by every filter.
type LaneFilter int

const (
	// LaneFilterAll returns every non-deleted lane.
	LaneFilterAll LaneFilter = iota

	// LaneFilterActive returns non-deleted lanes that are not completed.
	LaneFilterActive

	// LaneFilterCompleted returns non-deleted lanes that are completed.
	LaneFilterCompleted
)

// SwimLaneStore defines the interface for swimlane data persistence.
type SwimLaneStore interface {
	// Create saves a new swimlane to the store.
	Create(ctx context.Context, lane *domain.SwimLane) error

	// GetByID retrieves a swimlane by its unique ID. Soft-deleted lanes
	// are still retrievable by ID.
	// Returns ErrLaneNotFound if the lane does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SwimLane, error)

	// ListByOwner retrieves an owner's lanes matching the filter, ordered
	// by position.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter LaneFilter) ([]*domain.SwimLane, error)

	// Update persists the full state of an existing swimlane (name,
	// completion flag, soft-delete flag, position).
	// Returns ErrLaneNotFound if the lane does not exist.
	Update(ctx context.Context, lane *domain.SwimLane) error

	// UpdatePositions assigns each lane ID its index in orderedIDs as the
	// new position. IDs not owned by ownerID are ignored.
	UpdatePositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error

	// NextPosition returns the position immediately after the current
	// maximum among the owner's non-deleted lanes, or 0 when the owner
	// has none.
	NextPosition(ctx context.Context, ownerID uuid.UUID) (int, error)

	// WithTx returns a new SwimLaneStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) SwimLaneStore
}
