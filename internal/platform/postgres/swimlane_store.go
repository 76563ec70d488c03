package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/platform/logger"
	"github.com/phrazzld/laneboard/internal/store"
)

// PostgresSwimLaneStore implements the store.SwimLaneStore interface
// using a PostgreSQL database as the storage backend.
//
// Deletion is soft: rows are flagged is_deleted and excluded from listings,
// but remain retrievable by ID.
type PostgresSwimLaneStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSwimLaneStore creates a new PostgreSQL implementation of the
// SwimLaneStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSwimLaneStore(db store.DBTX, logger *slog.Logger) *PostgresSwimLaneStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSwimLaneStore{
		db:     db,
		logger: logger.With(slog.String("component", "swimlane_store")),
	}
}

// Ensure PostgresSwimLaneStore implements store.SwimLaneStore interface
var _ store.SwimLaneStore = (*PostgresSwimLaneStore)(nil)

// WithTx implements store.SwimLaneStore.WithTx
func (s *PostgresSwimLaneStore) WithTx(tx *sql.Tx) store.SwimLaneStore {
	return &PostgresSwimLaneStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.SwimLaneStore.Create
func (s *PostgresSwimLaneStore) Create(ctx context.Context, lane *domain.SwimLane) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := lane.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO swim_lanes (id, name, is_completed, is_deleted, position, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		lane.ID,
		lane.Name,
		lane.IsCompleted,
		lane.IsDeleted,
		lane.Position,
		lane.OwnerID,
		lane.CreatedAt,
		lane.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create swimlane",
			"lane_id", lane.ID,
			"owner_id", lane.OwnerID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.SwimLaneStore.GetByID
func (s *PostgresSwimLaneStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SwimLane, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, is_completed, is_deleted, position, owner_id, created_at, updated_at
		FROM swim_lanes
		WHERE id = $1
	`

	lane, err := scanSwimLane(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrLaneNotFound
		}
		log.Error("failed to get swimlane", "lane_id", id, "error", err)
		return nil, MapError(err)
	}

	return lane, nil
}

// ListByOwner implements store.SwimLaneStore.ListByOwner
func (s *PostgresSwimLaneStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.LaneFilter,
) ([]*domain.SwimLane, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, is_completed, is_deleted, position, owner_id, created_at, updated_at
		FROM swim_lanes
		WHERE owner_id = $1 AND is_deleted = FALSE
	`
	switch filter {
	case store.LaneFilterActive:
		query += ` AND is_completed = FALSE`
	case store.LaneFilterCompleted:
		query += ` AND is_completed = TRUE`
	}
	query += ` ORDER BY position ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list swimlanes", "owner_id", ownerID, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var lanes []*domain.SwimLane
	for rows.Next() {
		lane, err := scanSwimLane(rows)
		if err != nil {
			log.Error("failed to scan swimlane row", "owner_id", ownerID, "error", err)
			return nil, MapError(err)
		}
		lanes = append(lanes, lane)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating swimlane rows", "owner_id", ownerID, "error", err)
		return nil, MapError(err)
	}

	return lanes, nil
}

// Update implements store.SwimLaneStore.Update
func (s *PostgresSwimLaneStore) Update(ctx context.Context, lane *domain.SwimLane) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := lane.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	lane.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE swim_lanes
		SET name = $1, is_completed = $2, is_deleted = $3, position = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		lane.Name,
		lane.IsCompleted,
		lane.IsDeleted,
		lane.Position,
		lane.UpdatedAt,
		lane.ID,
	)
	if err != nil {
		log.Error("failed to update swimlane", "lane_id", lane.ID, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "swimlane"); err != nil {
		return store.ErrLaneNotFound
	}

	return nil
}

// UpdatePositions implements store.SwimLaneStore.UpdatePositions
func (s *PostgresSwimLaneStore) UpdatePositions(
	ctx context.Context,
	ownerID uuid.UUID,
	orderedIDs []uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE swim_lanes
		SET position = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4
	`

	now := time.Now().UTC()
	for i, id := range orderedIDs {
		// Rows not owned by ownerID match nothing and are skipped.
		if _, err := s.db.ExecContext(ctx, query, i, now, id, ownerID); err != nil {
			log.Error("failed to update swimlane position",
				"lane_id", id,
				"owner_id", ownerID,
				"position", i,
				"error", err)
			return MapError(err)
		}
	}

	return nil
}

// NextPosition implements store.SwimLaneStore.NextPosition
func (s *PostgresSwimLaneStore) NextPosition(ctx context.Context, ownerID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM swim_lanes
		WHERE owner_id = $1 AND is_deleted = FALSE
	`

	var next int
	if err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&next); err != nil {
		log.Error("failed to compute next swimlane position", "owner_id", ownerID, "error", err)
		return 0, MapError(err)
	}

	return next, nil
}

// scanSwimLane reads one swimlane row.
func scanSwimLane(row rowScanner) (*domain.SwimLane, error) {
	var lane domain.SwimLane
	err := row.Scan(
		&lane.ID,
		&lane.Name,
		&lane.IsCompleted,
		&lane.IsDeleted,
		&lane.Position,
		&lane.OwnerID,
		&lane.CreatedAt,
		&lane.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lane, nil
}
