package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// QueryObserver receives per-query timings
type QueryObserver interface {
	RecordDatabaseQuery(operation, status string, duration time.Duration)
}

// InventoryStorage implements inventory item, batch and consumption writes on PostgreSQL
type InventoryStorage struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	observer QueryObserver
}

// NewInventoryStorage creates a new inventory storage
func NewInventoryStorage(pool *pgxpool.Pool, logger *slog.Logger, observer QueryObserver) service.InventoryRepositoryInterface {
	return &InventoryStorage{
		pool:     pool,
		logger:   logger,
		observer: observer,
	}
}

const itemColumns = `id, farm_id, shed_id, name, description, unit, current_stock, minimum_stock,
	daily_avg_consumption, alert_threshold_days, critical_threshold_days,
	last_restock_date, last_consumption_date, created_at, updated_at`

const batchInsertColumns = `id, inventory_item_id, entry_date, initial_quantity, current_quantity,
	supplier, lot_number, expiry_date, created_at`

// seq is assigned by the database on insert and breaks same-day FIFO ties
const batchColumns = `seq, ` + batchInsertColumns

func scanItem(row pgx.Row) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(
		&item.ID, &item.FarmID, &item.ShedID, &item.Name, &item.Description, &item.Unit,
		&item.CurrentStock, &item.MinimumStock, &item.DailyAvgConsumption,
		&item.AlertThresholdDays, &item.CriticalThresholdDays,
		&item.LastRestockDate, &item.LastConsumptionDate, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func scanBatch(row pgx.Row) (*models.StockBatch, error) {
	batch := &models.StockBatch{}
	err := row.Scan(
		&batch.Seq, &batch.ID, &batch.InventoryItemID, &batch.EntryDate, &batch.InitialQuantity, &batch.CurrentQuantity,
		&batch.Supplier, &batch.LotNumber, &batch.ExpiryDate, &batch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *InventoryStorage) observe(operation string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.observer.RecordDatabaseQuery(operation, status, time.Since(start))
}

// GetItem returns an item or a RecordNotFoundError
func (s *InventoryStorage) GetItem(ctx context.Context, itemID uuid.UUID) (item *models.InventoryItem, err error) {
	start := time.Now()
	defer func() { s.observe("get_item", start, err) }()

	query := `SELECT ` + itemColumns + ` FROM farm.inventory_items WHERE id = $1`
	item, err = scanItem(s.pool.QueryRow(ctx, query, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internalerrors.NewRecordNotFound("inventory item", itemID)
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get inventory item")
	}
	return item, nil
}

// ListItemIDs returns the IDs of all inventory items
func (s *InventoryStorage) ListItemIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM farm.inventory_items ORDER BY created_at, id`)
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "list inventory items")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, internalerrors.HandleDatabaseError(err, "scan inventory item id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LockItem reads an item with FOR UPDATE; concurrent consumers of the same item serialize here
func (s *InventoryStorage) LockItem(ctx context.Context, tx interface{}, itemID uuid.UUID) (*models.InventoryItem, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM farm.inventory_items WHERE id = $1 FOR UPDATE`
	item, err := scanItem(pgxTx.QueryRow(ctx, query, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internalerrors.NewRecordNotFound("inventory item", itemID)
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "lock inventory item")
	}
	return item, nil
}

// GetAvailableBatches returns the non-depleted batches of an item in FIFO order, row-locked
func (s *InventoryStorage) GetAvailableBatches(ctx context.Context, tx interface{}, itemID uuid.UUID) ([]*models.StockBatch, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + batchColumns + `
		FROM farm.stock_batches
		WHERE inventory_item_id = $1 AND current_quantity > 0
		ORDER BY entry_date, seq
		FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, itemID)
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get available batches")
	}
	defer rows.Close()

	var batches []*models.StockBatch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, internalerrors.HandleDatabaseError(err, "scan stock batch")
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// CreateBatch inserts a new batch and records its database-assigned sequence
func (s *InventoryStorage) CreateBatch(ctx context.Context, tx interface{}, batch *models.StockBatch) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO farm.stock_batches (` + batchInsertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`

	err = pgxTx.QueryRow(ctx, query,
		batch.ID, batch.InventoryItemID, batch.EntryDate, batch.InitialQuantity, batch.CurrentQuantity,
		batch.Supplier, batch.LotNumber, batch.ExpiryDate, batch.CreatedAt,
	).Scan(&batch.Seq)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "create stock batch")
	}
	return nil
}

// UpdateBatchQuantities writes the current quantity of every given batch in one round trip
func (s *InventoryStorage) UpdateBatchQuantities(ctx context.Context, tx interface{}, batches []*models.StockBatch) error {
	if len(batches) == 0 {
		return nil
	}

	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, b := range batches {
		batch.Queue(`UPDATE farm.stock_batches SET current_quantity = $2 WHERE id = $1`, b.ID, b.CurrentQuantity)
	}

	br := pgxTx.SendBatch(ctx, batch)
	defer br.Close()

	for range batches {
		if _, err := br.Exec(); err != nil {
			return internalerrors.HandleDatabaseError(err, "update stock batches")
		}
	}
	return nil
}

// UpdateItemStock writes the stock columns of an item
func (s *InventoryStorage) UpdateItemStock(ctx context.Context, tx interface{}, item *models.InventoryItem) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE farm.inventory_items
		SET current_stock = $2, last_restock_date = $3, last_consumption_date = $4, updated_at = $5
		WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, item.ID, item.CurrentStock, item.LastRestockDate, item.LastConsumptionDate, item.UpdatedAt)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "update item stock")
	}
	if tag.RowsAffected() == 0 {
		return internalerrors.NewRecordNotFound("inventory item", item.ID)
	}
	return nil
}

// ConsumptionRecordExists reports whether the flock already has a record for the item on date
func (s *InventoryStorage) ConsumptionRecordExists(ctx context.Context, tx interface{}, flockID, itemID uuid.UUID, date time.Time) (bool, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return false, err
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM farm.consumption_records
			WHERE flock_id = $1 AND inventory_item_id = $2 AND record_date = $3
		)`

	var exists bool
	if err := pgxTx.QueryRow(ctx, query, flockID, itemID, models.DateOnly(date)).Scan(&exists); err != nil {
		return false, internalerrors.HandleDatabaseError(err, "check consumption record")
	}
	return exists, nil
}

// CreateConsumptionRecord inserts the audit entry of a consumption
func (s *InventoryStorage) CreateConsumptionRecord(ctx context.Context, tx interface{}, record *models.ConsumptionRecord) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO farm.consumption_records
			(id, flock_id, inventory_item_id, record_date, quantity_consumed, fifo_details, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = pgxTx.Exec(ctx, query,
		record.ID, record.FlockID, record.InventoryItemID, models.DateOnly(record.RecordDate),
		record.QuantityConsumed, record.FIFODetails, record.RecordedBy, record.CreatedAt,
	)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "create consumption record")
	}
	return nil
}

// SumConsumption totals the recorded consumption of an item over [from, to]
func (s *InventoryStorage) SumConsumption(ctx context.Context, itemID uuid.UUID, from, to time.Time) (total decimal.Decimal, err error) {
	start := time.Now()
	defer func() { s.observe("sum_consumption", start, err) }()

	query := `
		SELECT COALESCE(SUM(quantity_consumed), 0)
		FROM farm.consumption_records
		WHERE inventory_item_id = $1 AND record_date BETWEEN $2 AND $3`

	if err = s.pool.QueryRow(ctx, query, itemID, models.DateOnly(from), models.DateOnly(to)).Scan(&total); err != nil {
		return decimal.Zero, internalerrors.HandleDatabaseError(err, "sum consumption")
	}
	return total, nil
}

// LatestConsumptionDate returns the most recent consumption day of an item, nil when none
func (s *InventoryStorage) LatestConsumptionDate(ctx context.Context, itemID uuid.UUID) (*time.Time, error) {
	query := `SELECT MAX(record_date) FROM farm.consumption_records WHERE inventory_item_id = $1`

	var latest *time.Time
	if err := s.pool.QueryRow(ctx, query, itemID).Scan(&latest); err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get latest consumption date")
	}
	return latest, nil
}

// UpdateConsumptionMetrics stores the recomputed daily average of an item
func (s *InventoryStorage) UpdateConsumptionMetrics(ctx context.Context, itemID uuid.UUID, avg decimal.Decimal, lastConsumption *time.Time) error {
	query := `
		UPDATE farm.inventory_items
		SET daily_avg_consumption = $2,
		    last_consumption_date = COALESCE($3, last_consumption_date),
		    updated_at = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, itemID, avg, lastConsumption)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "update consumption metrics")
	}
	if tag.RowsAffected() == 0 {
		return internalerrors.NewRecordNotFound("inventory item", itemID)
	}

	s.logger.Debug("Consumption metrics updated", "item_id", itemID, "daily_avg", avg.String())
	return nil
}
