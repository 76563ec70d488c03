package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/idempotency"
	"github.com/phrazzld/laneboard/internal/store"
	"github.com/phrazzld/laneboard/internal/writequeue"
)

// TaskService provides task-related operations.
//
// Mutations return an optimistic projection of the result before the write
// has been persisted; the write itself runs on the write queue and is
// announced over SSE once committed. A duplicate submission inside the
// idempotency window returns an *idempotency.DuplicateError.
type TaskService interface {
	// GetTask retrieves a task the user owns (through its lane).
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// ListLaneTasks retrieves all tasks in one of the user's lanes,
	// ordered by status column and position.
	ListLaneTasks(ctx context.Context, userID, laneID uuid.UUID) ([]*domain.Task, error)

	// CreateTask creates a task at the end of the lane's status column.
	CreateTask(ctx context.Context, userID, laneID uuid.UUID, name string, status domain.TaskStatus, tags []string) (*domain.Task, error)

	// UpdateTask renames a task and replaces its tags.
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, name string, tags []string) (*domain.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error

	// MoveTask relocates a task to a lane and status column. When position
	// is nil the task is appended to the end of the destination column;
	// otherwise tasks at or after the position are shifted down to make
	// room.
	MoveTask(ctx context.Context, userID, taskID, toLaneID uuid.UUID, toStatus domain.TaskStatus, position *int) (*domain.Task, error)

	// AddComment appends a comment to a task.
	AddComment(ctx context.Context, userID, taskID uuid.UUID, text string) (*domain.Task, error)

	// UpdateComment replaces the text of an existing comment.
	UpdateComment(ctx context.Context, userID, taskID, commentID uuid.UUID, text string) (*domain.Task, error)

	// DeleteComment removes a comment from a task.
	DeleteComment(ctx context.Context, userID, taskID, commentID uuid.UUID) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	db     *sql.DB
	tasks  store.TaskStore
	lanes  store.SwimLaneStore
	guard  *idempotency.Guard
	window time.Duration
	queue  Enqueuer
	broker Broadcaster
	logger *slog.Logger

	// runTx is store.RunInTransaction, swappable in tests.
	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewTaskService creates a new TaskService.
// window is the idempotency window applied to every mutation.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	lanes store.SwimLaneStore,
	guard *idempotency.Guard,
	window time.Duration,
	queue Enqueuer,
	broker Broadcaster,
	logger *slog.Logger,
) TaskService {
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:     db,
		tasks:  tasks,
		lanes:  lanes,
		guard:  guard,
		window: window,
		queue:  queue,
		broker: broker,
		logger: logger.With(slog.String("component", "task_service")),
		runTx:  store.RunInTransaction,
	}
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, _, err := s.loadOwnedTask(ctx, userID, taskID)
	return task, err
}

// ListLaneTasks implements TaskService.ListLaneTasks
func (s *taskServiceImpl) ListLaneTasks(ctx context.Context, userID, laneID uuid.UUID) ([]*domain.Task, error) {
	if _, err := s.loadOwnedLane(ctx, userID, laneID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListBySwimLane(ctx, laneID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID, laneID uuid.UUID,
	name string,
	status domain.TaskStatus,
	tags []string,
) (*domain.Task, error) {
	if _, err := s.loadOwnedLane(ctx, userID, laneID); err != nil {
		return nil, err
	}

	// Creation writes synchronously: the client needs the real row, and a
	// create has no prior state for an optimistic projection to shadow.
	key := idempotency.Key("createTask", userID, laneID, name)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.Task, error) {
		var task *domain.Task
		err := s.runTx(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
			txTasks := s.tasks.WithTx(tx)

			position, err := txTasks.NextPosition(txCtx, laneID, status)
			if err != nil {
				return fmt.Errorf("failed to compute task position: %w", err)
			}

			task, err = domain.NewTask(laneID, name, status, position)
			if err != nil {
				return err
			}
			task.Tags = tags

			return txTasks.Create(txCtx, task)
		})
		if err != nil {
			return nil, err
		}

		s.broker.Broadcast(EventTaskUpdated, task)
		s.logger.Info("task created",
			"task_id", task.ID,
			"swim_lane_id", laneID,
			"status", task.Status)
		return task, nil
	})
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	name string,
	tags []string,
) (*domain.Task, error) {
	task, _, err := s.loadOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.ErrTaskNameEmpty
	}

	key := idempotency.Key("updateTask", taskID, name, tags)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.Task, error) {
		task.Name = name
		task.Tags = tags
		task.UpdatedAt = time.Now().UTC()

		s.enqueueTaskWrite("update_task", taskID, func(fresh *domain.Task) error {
			fresh.Name = name
			fresh.Tags = tags
			return nil
		})

		s.logger.Info("task update accepted", "task_id", taskID)
		return task, nil
	})
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if _, _, err := s.loadOwnedTask(ctx, userID, taskID); err != nil {
		return err
	}

	key := idempotency.Key("deleteTask", taskID)
	_, err := idempotency.Guarded(s.guard, s.window, key, func() (struct{}, error) {
		s.queue.Enqueue(writequeue.Job{
			Name: "delete_task",
			Run: func(jobCtx context.Context) error {
				err := s.runTx(jobCtx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
					return s.tasks.WithTx(tx).Delete(txCtx, taskID)
				})
				if errors.Is(err, store.ErrTaskNotFound) {
					// Already gone; an earlier queued delete won.
					return nil
				}
				if err != nil {
					return err
				}

				s.broker.Broadcast(EventTaskDeleted, taskID)
				return nil
			},
		})

		s.logger.Info("task delete accepted", "task_id", taskID)
		return struct{}{}, nil
	})
	return err
}

// MoveTask implements TaskService.MoveTask
func (s *taskServiceImpl) MoveTask(
	ctx context.Context,
	userID, taskID, toLaneID uuid.UUID,
	toStatus domain.TaskStatus,
	position *int,
) (*domain.Task, error) {
	task, _, err := s.loadOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadOwnedLane(ctx, userID, toLaneID); err != nil {
		return nil, err
	}
	if !toStatus.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	if position != nil && *position < 0 {
		return nil, fmt.Errorf("%w: position cannot be negative", domain.ErrValidation)
	}

	// The destination position is part of the move's identity: two
	// concurrent moves of one task to different spots are distinct
	// operations, not duplicates.
	posKey := "append"
	if position != nil {
		posKey = strconv.Itoa(*position)
	}
	key := idempotency.Key("moveTask", taskID, toLaneID, toStatus, posKey)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.Task, error) {
		// Optimistic projection of the landing spot.
		targetPos := 0
		if position != nil {
			targetPos = *position
		} else {
			next, err := s.tasks.NextPosition(ctx, toLaneID, toStatus)
			if err != nil {
				return nil, fmt.Errorf("failed to compute destination position: %w", err)
			}
			targetPos = next
		}

		task.SwimLaneID = toLaneID
		task.Status = toStatus
		task.Position = targetPos
		task.UpdatedAt = time.Now().UTC()

		explicit := position != nil
		s.queue.Enqueue(writequeue.Job{
			Name: "move_task",
			Run: func(jobCtx context.Context) error {
				var moved *domain.Task
				err := s.runTx(jobCtx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
					txTasks := s.tasks.WithTx(tx)

					fresh, err := txTasks.GetByID(txCtx, taskID)
					if err != nil {
						return err
					}

					pos := targetPos
					if explicit {
						// Make room at the requested slot.
						shifted, err := txTasks.ShiftPositions(txCtx, toLaneID, toStatus, pos, taskID)
						if err != nil {
							return err
						}
						if shifted > 0 {
							s.logger.Debug("shifted tasks for move",
								"task_id", taskID,
								"shifted", shifted)
						}
					} else {
						next, err := txTasks.NextPosition(txCtx, toLaneID, toStatus)
						if err != nil {
							return err
						}
						pos = next
					}

					if err := txTasks.UpdatePlacement(txCtx, taskID, toStatus, toLaneID, pos); err != nil {
						return err
					}

					fresh.SwimLaneID = toLaneID
					fresh.Status = toStatus
					fresh.Position = pos
					moved = fresh
					return nil
				})
				if errors.Is(err, store.ErrTaskNotFound) {
					// Deleted by an earlier queued write.
					return nil
				}
				if err != nil {
					return err
				}

				s.broker.Broadcast(EventTaskUpdated, moved)
				return nil
			},
		})

		s.logger.Info("task move accepted",
			"task_id", taskID,
			"to_lane_id", toLaneID,
			"to_status", toStatus,
			"position", targetPos)
		return task, nil
	})
}

// AddComment implements TaskService.AddComment
func (s *taskServiceImpl) AddComment(
	ctx context.Context,
	userID, taskID uuid.UUID,
	text string,
) (*domain.Task, error) {
	task, _, err := s.loadOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	key := idempotency.Key("addComment", taskID, text)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.Task, error) {
		comment, err := task.AddComment(text)
		if err != nil {
			return nil, err
		}

		// Append the exact comment so the persisted ID matches the
		// optimistic response.
		s.enqueueTaskWrite("add_comment", taskID, func(fresh *domain.Task) error {
			fresh.Comments = append(fresh.Comments, comment)
			return nil
		})

		s.logger.Info("comment add accepted", "task_id", taskID, "comment_id", comment.ID)
		return task, nil
	})
}

// UpdateComment implements TaskService.UpdateComment
func (s *taskServiceImpl) UpdateComment(
	ctx context.Context,
	userID, taskID, commentID uuid.UUID,
	text string,
) (*domain.Task, error) {
	task, _, err := s.loadOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	key := idempotency.Key("updateComment", taskID, commentID, text)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.Task, error) {
		if _, err := task.UpdateComment(commentID, text); err != nil {
			return nil, err
		}

		s.enqueueTaskWrite("update_comment", taskID, func(fresh *domain.Task) error {
			_, err := fresh.UpdateComment(commentID, text)
			return err
		})

		s.logger.Info("comment update accepted", "task_id", taskID, "comment_id", commentID)
		return task, nil
	})
}

// DeleteComment implements TaskService.DeleteComment
func (s *taskServiceImpl) DeleteComment(
	ctx context.Context,
	userID, taskID, commentID uuid.UUID,
) (*domain.Task, error) {
	task, _, err := s.loadOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	key := idempotency.Key("deleteComment", taskID, commentID)
	return idempotency.Guarded(s.guard, s.window, key, func() (*domain.Task, error) {
		// Deleting an absent comment is a no-op, not an error.
		task.DeleteComment(commentID)

		s.enqueueTaskWrite("delete_comment", taskID, func(fresh *domain.Task) error {
			fresh.DeleteComment(commentID)
			return nil
		})

		s.logger.Info("comment delete accepted", "task_id", taskID, "comment_id", commentID)
		return task, nil
	})
}

// enqueueTaskWrite defers a read-modify-write of one task. The mutation runs
// against the freshly loaded row inside the transaction, so queued writes to
// the same task apply in enqueue order and the last write wins. A task that
// disappeared before the job ran is treated as a no-op; a mutation error
// aborts the write and is logged by the queue.
func (s *taskServiceImpl) enqueueTaskWrite(name string, taskID uuid.UUID, mutate func(fresh *domain.Task) error) {
	s.queue.Enqueue(writequeue.Job{
		Name: name,
		Run: func(jobCtx context.Context) error {
			var updated *domain.Task
			err := s.runTx(jobCtx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
				txTasks := s.tasks.WithTx(tx)

				fresh, err := txTasks.GetByID(txCtx, taskID)
				if err != nil {
					return err
				}
				if err := mutate(fresh); err != nil {
					return err
				}
				if err := txTasks.Update(txCtx, fresh); err != nil {
					return err
				}

				updated = fresh
				return nil
			})
			if errors.Is(err, store.ErrTaskNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			s.broker.Broadcast(EventTaskUpdated, updated)
			return nil
		},
	})
}

// loadOwnedTask fetches a task and its lane, verifying the lane belongs to
// userID. Ownership of a task is derived from its lane.
func (s *taskServiceImpl) loadOwnedTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, *domain.SwimLane, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	lane, err := s.lanes.GetByID(ctx, task.SwimLaneID)
	if err != nil {
		return nil, nil, err
	}
	if !lane.IsOwnedBy(userID) {
		return nil, nil, domain.ErrNotOwner
	}

	return task, lane, nil
}

// loadOwnedLane fetches a lane and verifies ownership and liveness.
func (s *taskServiceImpl) loadOwnedLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
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
