package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/idempotency"
	"github.com/phrazzld/laneboard/internal/store"
	"github.com/phrazzld/laneboard/internal/writequeue"
)

// SwimLaneService provides swimlane-related operations.
//
// Like TaskService, mutations are optimistic: the projected lane is returned
// immediately and the write runs on the write queue, announced over SSE once
// committed. Deletion is soft; a deleted lane disappears from listings but
// its row (and its tasks') survive.
type SwimLaneService interface {
	// ListLanes retrieves the user's lanes matching the filter, ordered by
	// position.
	ListLanes(ctx context.Context, userID uuid.UUID, filter store.LaneFilter) ([]*domain.SwimLane, error)

	// GetLane retrieves one of the user's lanes.
	GetLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error)

	// CreateLane creates a lane at the end of the user's board.
	CreateLane(ctx context.Context, userID uuid.UUID, name string) (*domain.SwimLane, error)

	// RenameLane changes a lane's name.
	RenameLane(ctx context.Context, userID, laneID uuid.UUID, name string) (*domain.SwimLane, error)

	// CompleteLane marks a lane completed, hiding it from the active board.
	CompleteLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error)

	// UncompleteLane returns a completed lane to the active board.
	UncompleteLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error)

	// DeleteLane soft-deletes a lane.
	DeleteLane(ctx context.Context, userID, laneID uuid.UUID) error

	// ReorderLanes assigns each lane its index in orderedIDs as its new
	// position. Lanes not owned by the user are ignored.
	ReorderLanes(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error
}

// swimLaneServiceImpl implements the SwimLaneService interface
type swimLaneServiceImpl struct {
	db     *sql.DB
	lanes  store.SwimLaneStore
	guard  *idempotency.Guard
	window time.Duration
	queue  Enqueuer
	broker Broadcaster
	logger *slog.Logger

	// runTx is store.RunInTransaction, swappable in tests.
	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewSwimLaneService creates a new SwimLaneService.
func NewSwimLaneService(
	db *sql.DB,
	lanes store.SwimLaneStore,
	guard *idempotency.Guard,
	window time.Duration,
	queue Enqueuer,
	broker Broadcaster,
	logger *slog.Logger,
) SwimLaneService {
	if logger == nil {
		logger = slog.Default()
	}

	return &swimLaneServiceImpl{
		db:     db,
		lanes:  lanes,
		guard:  guard,
		window: window,
		queue:  queue,
		broker: broker,
		logger: logger.With(slog.String("component", "swimlane_service")),
		runTx:  store.RunInTransaction,
	}
}

// ListLanes implements SwimLaneService.ListLanes
func (s *swimLaneServiceImpl) ListLanes(
	ctx context.Context,
	userID uuid.UUID,
	filter store.LaneFilter,
) ([]*domain.SwimLane, error) {
	lanes, err := s.lanes.ListByOwner(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list swimlanes: %w", err)
	}
	return lanes, nil
}

// GetLane implements SwimLaneService.GetLane
func (s *swimLaneServiceImpl) GetLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	return s.loadOwnedLane(ctx, userID, laneID)
}

// CreateLane implements SwimLaneService.CreateLane
func (s *swimLaneServiceImpl) CreateLane(ctx context.Context, userID uuid.UUID, name string) (*domain.SwimLane, error) {
	// Creation writes synchronously, like task creation.
	key := idempotency.Key("createLane", userID, name)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.SwimLane, error) {
		var lane *domain.SwimLane
		err := s.runTx(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
			txLanes := s.lanes.WithTx(tx)

			position, err := txLanes.NextPosition(txCtx, userID)
			if err != nil {
				return fmt.Errorf("failed to compute lane position: %w", err)
			}

			lane, err = domain.NewSwimLane(userID, name, position)
			if err != nil {
				return err
			}

			return txLanes.Create(txCtx, lane)
		})
		if err != nil {
			return nil, err
		}

		s.broker.Broadcast(EventLaneUpdated, lane)
		s.logger.Info("lane created", "lane_id", lane.ID, "owner_id", userID)
		return lane, nil
	})
}

// RenameLane implements SwimLaneService.RenameLane
func (s *swimLaneServiceImpl) RenameLane(
	ctx context.Context,
	userID, laneID uuid.UUID,
	name string,
) (*domain.SwimLane, error) {
	lane, err := s.loadOwnedLane(ctx, userID, laneID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.ErrLaneNameEmpty
	}

	key := idempotency.Key("renameLane", laneID, name)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.SwimLane, error) {
		lane.Name = name
		lane.UpdatedAt = time.Now().UTC()

		s.enqueueLaneWrite("rename_lane", laneID, func(fresh *domain.SwimLane) {
			fresh.Name = name
		})

		s.logger.Info("lane rename accepted", "lane_id", laneID)
		return lane, nil
	})
}

// CompleteLane implements SwimLaneService.CompleteLane
func (s *swimLaneServiceImpl) CompleteLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	return s.setLaneCompletion(ctx, userID, laneID, true)
}

// UncompleteLane implements SwimLaneService.UncompleteLane
func (s *swimLaneServiceImpl) UncompleteLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	return s.setLaneCompletion(ctx, userID, laneID, false)
}

func (s *swimLaneServiceImpl) setLaneCompletion(
	ctx context.Context,
	userID, laneID uuid.UUID,
	completed bool,
) (*domain.SwimLane, error) {
	lane, err := s.loadOwnedLane(ctx, userID, laneID)
	if err != nil {
		return nil, err
	}

	op := "completeLane"
	jobName := "complete_lane"
	if !completed {
		op = "uncompleteLane"
		jobName = "uncomplete_lane"
	}

	key := idempotency.Key(op, laneID)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.SwimLane, error) {
		lane.IsCompleted = completed
		lane.UpdatedAt = time.Now().UTC()

		s.enqueueLaneWrite(jobName, laneID, func(fresh *domain.SwimLane) {
			fresh.IsCompleted = completed
		})

		s.logger.Info("lane completion change accepted",
			"lane_id", laneID,
			"is_completed", completed)
		return lane, nil
	})
}

// DeleteLane implements SwimLaneService.DeleteLane
func (s *swimLaneServiceImpl) DeleteLane(ctx context.Context, userID, laneID uuid.UUID) error {
	if _, err := s.loadOwnedLane(ctx, userID, laneID); err != nil {
		return err
	}

	key := idempotency.Key("deleteLane", laneID)
	_, err := idempotency.Guarded(s.guard, s.window, key, func() (struct{}, error) {
		s.enqueueLaneWrite("delete_lane", laneID, func(fresh *domain.SwimLane) {
			fresh.IsDeleted = true
		})

		s.logger.Info("lane delete accepted", "lane_id", laneID)
		return struct{}{}, nil
	})
	return err
}

// ReorderLanes implements SwimLaneService.ReorderLanes
func (s *swimLaneServiceImpl) ReorderLanes(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("%w: ordered lane list cannot be empty", domain.ErrValidation)
	}

	key := idempotency.Key("reorderLanes", userID, orderedIDs)
	_, err := idempotency.Guarded(s.guard, s.window, key, func() (struct{}, error) {
		ids := make([]uuid.UUID, len(orderedIDs))
		copy(ids, orderedIDs)

		s.queue.Enqueue(writequeue.Job{
			Name: "reorder_lanes",
			Run: func(jobCtx context.Context) error {
				err := s.runTx(jobCtx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
					return s.lanes.WithTx(tx).UpdatePositions(txCtx, userID, ids)
				})
				if err != nil {
					return err
				}

				s.broker.Broadcast(EventLaneUpdated, ids)
				return nil
			},
		})

		s.logger.Info("lane reorder accepted", "owner_id", userID, "lane_count", len(ids))
		return struct{}{}, nil
	})
	return err
}

// enqueueLaneWrite defers a read-modify-write of one lane, mirroring
// taskServiceImpl.enqueueTaskWrite.
func (s *swimLaneServiceImpl) enqueueLaneWrite(name string, laneID uuid.UUID, mutate func(fresh *domain.SwimLane)) {
	s.queue.Enqueue(writequeue.Job{
		Name: name,
		Run: func(jobCtx context.Context) error {
			var updated *domain.SwimLane
			err := s.runTx(jobCtx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
				txLanes := s.lanes.WithTx(tx)

				fresh, err := txLanes.GetByID(txCtx, laneID)
				if err != nil {
					return err
				}
				mutate(fresh)
				if err := txLanes.Update(txCtx, fresh); err != nil {
					return err
				}

				updated = fresh
				return nil
			})
			if errors.Is(err, store.ErrLaneNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			s.broker.Broadcast(EventLaneUpdated, updated)
			return nil
		},
	})
}

// loadOwnedLane fetches a lane and verifies ownership and liveness.
func (s *swimLaneServiceImpl) loadOwnedLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	lane, err := s.lanes.GetByID(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if !lane.IsOwnedBy(userID) {
		return nil, domain.ErrNotOwner
	}
	if lane.IsDeleted {
		return nil, fmt.Errorf("%w: %s", ErrLaneDeleted, laneID)
	}

	return lane, nil
}
