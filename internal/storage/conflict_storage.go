package storage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// ConflictStorage implements sync conflict writes on PostgreSQL
type ConflictStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewConflictStorage creates a new conflict storage
func NewConflictStorage(pool *pgxpool.Pool, logger *slog.Logger) service.ConflictRepositoryInterface {
	return &ConflictStorage{
		pool:   pool,
		logger: logger,
	}
}

const conflictColumns = `id, farm_id, conflict_type, record_type, server_data, client_data, device_info,
	priority, resolution_status, reported_by, resolved_by, resolved_at, resolution_data,
	resolution_notes, created_at`

func scanConflict(row pgx.Row) (*models.SyncConflict, error) {
	c := &models.SyncConflict{}
	err := row.Scan(
		&c.ID, &c.FarmID, &c.ConflictType, &c.RecordType, &c.ServerData, &c.ClientData, &c.DeviceInfo,
		&c.Priority, &c.ResolutionStatus, &c.ReportedBy, &c.ResolvedBy, &c.ResolvedAt, &c.ResolutionData,
		&c.ResolutionNotes, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateConflict inserts a new conflict
func (s *ConflictStorage) CreateConflict(ctx context.Context, c *models.SyncConflict) error {
	query := `
		INSERT INTO farm.sync_conflicts (` + conflictColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.pool.Exec(ctx, query,
		c.ID, c.FarmID, string(c.ConflictType), c.RecordType, c.ServerData, c.ClientData, c.DeviceInfo,
		string(c.Priority), string(c.ResolutionStatus), c.ReportedBy, c.ResolvedBy, c.ResolvedAt, c.ResolutionData,
		c.ResolutionNotes, c.CreatedAt,
	)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "create sync conflict")
	}

	s.logger.Debug("Sync conflict stored", "conflict_id", c.ID, "type", c.ConflictType, "priority", c.Priority)
	return nil
}

// GetConflict returns a conflict or a RecordNotFoundError
func (s *ConflictStorage) GetConflict(ctx context.Context, conflictID uuid.UUID) (*models.SyncConflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM farm.sync_conflicts WHERE id = $1`
	c, err := scanConflict(s.pool.QueryRow(ctx, query, conflictID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internalerrors.NewRecordNotFound("sync conflict", conflictID)
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get sync conflict")
	}
	return c, nil
}

// LockConflict reads a conflict with FOR UPDATE; two resolvers of one conflict serialize here
// and the second sees the terminal status written by the first
func (s *ConflictStorage) LockConflict(ctx context.Context, tx interface{}, conflictID uuid.UUID) (*models.SyncConflict, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + conflictColumns + ` FROM farm.sync_conflicts WHERE id = $1 FOR UPDATE`
	c, err := scanConflict(pgxTx.QueryRow(ctx, query, conflictID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internalerrors.NewRecordNotFound("sync conflict", conflictID)
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "lock sync conflict")
	}
	return c, nil
}

// UpdateConflictResolution writes the resolution columns; only pending rows are updated
func (s *ConflictStorage) UpdateConflictResolution(ctx context.Context, tx interface{}, c *models.SyncConflict) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE farm.sync_conflicts
		SET resolution_status = $2, resolved_by = $3, resolved_at = $4, resolution_data = $5, resolution_notes = $6
		WHERE id = $1 AND resolution_status = 'PENDING'`

	tag, err := pgxTx.Exec(ctx, query,
		c.ID, string(c.ResolutionStatus), c.ResolvedBy, c.ResolvedAt, c.ResolutionData, c.ResolutionNotes,
	)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "update sync conflict resolution")
	}
	if tag.RowsAffected() == 0 {
		return &internalerrors.AlreadyResolvedError{ConflictID: c.ID.String(), Status: "unknown"}
	}
	return nil
}
