package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/laneboard/internal/domain"
)

// TaskStore defines the interface for task data persistence.
//
// Implementations must keep the legacy comment representation readable: a
// task whose comments column holds a plain JSON string array is returned with
// the list upgraded to structured form (see domain.DecodeComments), and
// GetByID persists the upgraded form back so the legacy row heals on first
// read.
type TaskStore interface {
	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListBySwimLane retrieves all tasks in a lane ordered by status and
	// position.
	ListBySwimLane(ctx context.Context, laneID uuid.UUID) ([]*domain.Task, error)

	// Update persists the full state of an existing task (name, status,
	// lane, position, tags, comment list).
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdatePlacement updates only a task's status, lane, and position.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdatePlacement(ctx context.Context, id uuid.UUID, status domain.TaskStatus, laneID uuid.UUID, position int) error

	// ShiftPositions increments the position of every task in the
	// (laneID, status) partition whose position is at or after from,
	// excluding excludeID. This is called before placing a task at
	// position from to make room without collisions.
	// Returns the number of tasks shifted.
	ShiftPositions(ctx context.Context, laneID uuid.UUID, status domain.TaskStatus, from int, excludeID uuid.UUID) (int, error)

	// NextPosition returns the position immediately after the current
	// maximum in the (laneID, status) partition, or 0 for an empty
	// partition.
	NextPosition(ctx context.Context, laneID uuid.UUID, status domain.TaskStatus) (int, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
