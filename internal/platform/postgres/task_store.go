package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/platform/logger"
	"github.com/phrazzld/laneboard/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
//
// Tags and comments are stored as JSONB. The comments column may still hold
// the legacy plain-string-array form for rows written by older versions;
// reads upgrade it via domain.DecodeComments, and GetByID writes the
// structured form back so each legacy row heals on first read.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, comments, err := encodeTaskJSON(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, name, status, swim_lane_id, position, tags, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.Name,
		task.Status,
		task.SwimLaneID,
		task.Position,
		tags,
		comments,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			"task_id", task.ID,
			"swim_lane_id", task.SwimLaneID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, status, swim_lane_id, position, tags, comments, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	task, migrated, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", "task_id", id, "error", err)
		return nil, MapError(err)
	}

	if migrated {
		// Heal the legacy comment form in place. Best effort: the caller
		// still gets the upgraded task if the write-back fails.
		if err := s.persistComments(ctx, task); err != nil {
			log.Warn("failed to persist upgraded comments",
				"task_id", task.ID,
				"error", err)
		} else {
			log.Info("migrated legacy comments to structured form",
				"task_id", task.ID,
				"comment_count", len(task.Comments))
		}
	}

	return task, nil
}

// ListBySwimLane implements store.TaskStore.ListBySwimLane
func (s *PostgresTaskStore) ListBySwimLane(ctx context.Context, laneID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, status, swim_lane_id, position, tags, comments, created_at, updated_at
		FROM tasks
		WHERE swim_lane_id = $1
		ORDER BY status ASC, position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, laneID)
	if err != nil {
		log.Error("failed to list tasks by lane", "swim_lane_id", laneID, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, _, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", "swim_lane_id", laneID, "error", err)
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", "swim_lane_id", laneID, "error", err)
		return nil, MapError(err)
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, comments, err := encodeTaskJSON(task)
	if err != nil {
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET name = $1, status = $2, swim_lane_id = $3, position = $4, tags = $5, comments = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(ctx, query,
		task.Name,
		task.Status,
		task.SwimLaneID,
		task.Position,
		tags,
		comments,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task", "task_id", task.ID, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}

	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task", "task_id", id, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}

	return nil
}

// UpdatePlacement implements store.TaskStore.UpdatePlacement
func (s *PostgresTaskStore) UpdatePlacement(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	laneID uuid.UUID,
	position int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, swim_lane_id = $2, position = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query, status, laneID, position, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update task placement",
			"task_id", id,
			"swim_lane_id", laneID,
			"status", status,
			"position", position,
			"error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}

	return nil
}

// ShiftPositions implements store.TaskStore.ShiftPositions
func (s *PostgresTaskStore) ShiftPositions(
	ctx context.Context,
	laneID uuid.UUID,
	status domain.TaskStatus,
	from int,
	excludeID uuid.UUID,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET position = position + 1, updated_at = $1
		WHERE swim_lane_id = $2 AND status = $3 AND position >= $4 AND id != $5
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), laneID, status, from, excludeID)
	if err != nil {
		log.Error("failed to shift task positions",
			"swim_lane_id", laneID,
			"status", status,
			"from_position", from,
			"error", err)
		return 0, MapError(err)
	}

	shifted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(shifted), nil
}

// NextPosition implements store.TaskStore.NextPosition
func (s *PostgresTaskStore) NextPosition(
	ctx context.Context,
	laneID uuid.UUID,
	status domain.TaskStatus,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM tasks
		WHERE swim_lane_id = $1 AND status = $2
	`

	var next int
	if err := s.db.QueryRowContext(ctx, query, laneID, status).Scan(&next); err != nil {
		log.Error("failed to compute next task position",
			"swim_lane_id", laneID,
			"status", status,
			"error", err)
		return 0, MapError(err)
	}

	return next, nil
}

// persistComments writes only the task's comment list back to the row,
// leaving updated_at untouched so the heal is invisible to clients.
func (s *PostgresTaskStore) persistComments(ctx context.Context, task *domain.Task) error {
	comments, err := json.Marshal(task.Comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET comments = $1 WHERE id = $2`, comments, task.ID)
	return MapError(err)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row, decoding the JSONB tags and comments columns.
// The second return reports whether the comment list was upgraded from the
// legacy plain-string form.
func scanTask(row rowScanner) (*domain.Task, bool, error) {
	var (
		task        domain.Task
		tagsRaw     []byte
		commentsRaw []byte
	)

	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.Status,
		&task.SwimLaneID,
		&task.Position,
		&tagsRaw,
		&commentsRaw,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &task.Tags); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal task tags: %w", err)
		}
	}

	comments, migrated := domain.DecodeComments(commentsRaw)
	task.Comments = comments

	return &task, migrated, nil
}

// encodeTaskJSON marshals the task's tags and comments for the JSONB columns.
// Nil slices are stored as empty arrays so reads never see SQL NULL.
func encodeTaskJSON(task *domain.Task) (tags, comments []byte, err error) {
	t := task.Tags
	if t == nil {
		t = []string{}
	}
	tags, err = json.Marshal(t)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal task tags: %w", err)
	}

	c := task.Comments
	if c == nil {
		c = domain.CommentList{}
	}
	comments, err = json.Marshal(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal task comments: %w", err)
	}

	return tags, comments, nil
}
