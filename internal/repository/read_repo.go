package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// readRepo implements the read-only listings on top of sqlx
type readRepo struct {
	db *sqlx.DB
}

// NewReadRepository creates a new read repository
func NewReadRepository(db *sqlx.DB) service.ReadRepositoryInterface {
	return &readRepo{
		db: db,
	}
}

// ListBatches returns every batch of an item in FIFO order, depleted ones included
func (r *readRepo) ListBatches(ctx context.Context, itemID uuid.UUID) ([]*models.StockBatch, error) {
	query := `
		SELECT seq, id, inventory_item_id, entry_date, initial_quantity, current_quantity,
		       supplier, lot_number, expiry_date, created_at
		FROM farm.stock_batches
		WHERE inventory_item_id = $1
		ORDER BY entry_date, seq
	`

	batches := []*models.StockBatch{}
	if err := r.db.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, errors.Wrap(err, "failed to list stock batches")
	}
	return batches, nil
}

// ListConsumptionRecords returns the consumption records of an item within [from, to]
func (r *readRepo) ListConsumptionRecords(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]*models.ConsumptionRecord, error) {
	query := `
		SELECT id, flock_id, inventory_item_id, record_date, quantity_consumed,
		       fifo_details, recorded_by, created_at
		FROM farm.consumption_records
		WHERE inventory_item_id = $1 AND record_date BETWEEN $2 AND $3
		ORDER BY record_date, created_at
	`

	records := []*models.ConsumptionRecord{}
	if err := r.db.SelectContext(ctx, &records, query, itemID, from, to); err != nil {
		return nil, errors.Wrap(err, "failed to list consumption records")
	}
	return records, nil
}

// ListMortalityRecords returns the mortality records of a flock within [from, to]
func (r *readRepo) ListMortalityRecords(ctx context.Context, flockID uuid.UUID, from, to time.Time) ([]*models.MortalityRecord, error) {
	query := `
		SELECT id, flock_id, record_date, deaths, cause_id, notes, recorded_by, client_id,
		       created_at, updated_at
		FROM farm.mortality_records
		WHERE flock_id = $1 AND record_date BETWEEN $2 AND $3
		ORDER BY record_date
	`

	records := []*models.MortalityRecord{}
	if err := r.db.SelectContext(ctx, &records, query, flockID, from, to); err != nil {
		return nil, errors.Wrap(err, "failed to list mortality records")
	}
	return records, nil
}

// ListConflicts returns a page of conflicts, newest first
func (r *readRepo) ListConflicts(ctx context.Context, filter *models.ConflictFilter) ([]*models.SyncConflict, error) {
	if filter == nil {
		filter = &models.ConflictFilter{}
	}

	where, args := conflictConditions(filter)
	query := `
		SELECT id, farm_id, conflict_type, record_type, server_data, client_data, device_info,
		       priority, resolution_status, reported_by, resolved_by, resolved_at,
		       resolution_data, resolution_notes, created_at
		FROM farm.sync_conflicts`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf("\n\t\tORDER BY created_at DESC, id\n\t\tLIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	conflicts := []*models.SyncConflict{}
	if err := r.db.SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sync conflicts")
	}
	return conflicts, nil
}

func conflictConditions(filter *models.ConflictFilter) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Status != "" {
		add("resolution_status", strings.ToUpper(filter.Status))
	}
	if filter.Priority != "" {
		add("priority", strings.ToUpper(filter.Priority))
	}
	if filter.RecordType != "" {
		add("record_type", strings.ToLower(filter.RecordType))
	}
	if filter.FarmID != nil {
		add("farm_id", *filter.FarmID)
	}
	return where, args
}
