package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

// inventoryLedger implements InventoryLedger interface
type inventoryLedger struct {
	deps         *ServiceDependencies
	cacheManager CacheManager
}

// NewInventoryLedger creates a new FIFO inventory ledger
func NewInventoryLedger(deps *ServiceDependencies) InventoryLedger {
	return &inventoryLedger{
		deps:         deps,
		cacheManager: NewCacheManager(deps),
	}
}

// AddStock appends a new batch to the item; every call creates a distinct lot
func (l *inventoryLedger) AddStock(ctx context.Context, req *AddStockInput) (batch *models.StockBatch, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "inventory.add_stock")
	defer span.End()
	defer func() { l.recordOperation("add_stock", start, err) }()

	span.SetAttributes(
		attribute.String("item.id", req.ItemID.String()),
		attribute.String("inventory.quantity", req.Quantity.String()),
	)

	if !req.Quantity.IsPositive() {
		return nil, recordSpanError(span, &internalerrors.InvalidQuantityError{Field: "quantity", Value: req.Quantity.String()})
	}

	now := l.deps.now()
	entryDate := models.DateOnly(now)
	if req.EntryDate != nil {
		entryDate = models.DateOnly(*req.EntryDate)
	}

	txm := l.deps.Repositories.Transactions
	tx, err := txm.BeginTransaction(ctx)
	if err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to begin transaction"))
	}

	committed := false
	defer func() {
		if !committed {
			_ = txm.RollbackTransaction(ctx, tx)
		}
	}()

	inventory := l.deps.Repositories.Inventory
	item, err := inventory.LockItem(ctx, tx, req.ItemID)
	if err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "lock_inventory_item"))
	}

	batch = &models.StockBatch{
		ID:              uuid.New(),
		InventoryItemID: item.ID,
		EntryDate:       entryDate,
		InitialQuantity: req.Quantity,
		CurrentQuantity: req.Quantity,
		Supplier:        req.Supplier,
		LotNumber:       req.LotNumber,
		ExpiryDate:      req.ExpiryDate,
		CreatedAt:       now,
	}
	if err = inventory.CreateBatch(ctx, tx, batch); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "create_stock_batch"))
	}

	item.CurrentStock = item.CurrentStock.Add(req.Quantity)
	item.LastRestockDate = &entryDate
	item.UpdatedAt = now
	if err = inventory.UpdateItemStock(ctx, tx, item); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "update_item_stock"))
	}

	if err = txm.CommitTransaction(ctx, tx); err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to commit transaction"))
	}
	committed = true

	l.invalidateItem(ctx, item.ID)

	l.deps.logger().Info("Stock added",
		"item_id", item.ID,
		"batch_id", batch.ID,
		"quantity", req.Quantity.String(),
		"entry_date", entryDate.Format("2006-01-02"),
		"current_stock", item.CurrentStock.String())

	return batch, nil
}

// ConsumeFIFO draws stock oldest batch first. Batch decrements, the stock decrement and
// the consumption record commit together or not at all.
func (l *inventoryLedger) ConsumeFIFO(ctx context.Context, req *ConsumeInput) (result *ConsumeResult, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "inventory.consume_fifo")
	defer span.End()
	defer func() { l.recordOperation("consume_fifo", start, err) }()

	span.SetAttributes(
		attribute.String("item.id", req.ItemID.String()),
		attribute.String("inventory.quantity", req.Quantity.String()),
	)

	if !req.Quantity.IsPositive() {
		return nil, recordSpanError(span, &internalerrors.InvalidQuantityError{Field: "quantity", Value: req.Quantity.String()})
	}

	if req.FlockID != nil {
		if _, err = l.deps.Repositories.Flocks.GetFlock(ctx, *req.FlockID); err != nil {
			return nil, recordSpanError(span, err)
		}
	}

	now := l.deps.now()
	today := models.DateOnly(now)

	txm := l.deps.Repositories.Transactions
	tx, err := txm.BeginTransaction(ctx)
	if err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to begin transaction"))
	}

	committed := false
	defer func() {
		if !committed {
			_ = txm.RollbackTransaction(ctx, tx)
		}
	}()

	inventory := l.deps.Repositories.Inventory
	item, err := inventory.LockItem(ctx, tx, req.ItemID)
	if err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "lock_inventory_item"))
	}

	if item.CurrentStock.LessThan(req.Quantity) {
		return nil, recordSpanError(span, &internalerrors.InsufficientStockError{
			ItemID:    item.ID.String(),
			Available: item.CurrentStock.String(),
			Requested: req.Quantity.String(),
		})
	}

	if req.FlockID != nil {
		exists, err := inventory.ConsumptionRecordExists(ctx, tx, *req.FlockID, item.ID, today)
		if err != nil {
			return nil, recordSpanError(span, errors.Wrap(err, "failed to check consumption record"))
		}
		if exists {
			return nil, recordSpanError(span, &internalerrors.DuplicateRecordConflictError{
				Resource: "consumption_record",
				Key:      fmt.Sprintf("%s:%s:%s", req.FlockID, item.ID, today.Format("2006-01-02")),
				Message:  fmt.Sprintf("consumption of item %s by flock %s is already recorded for %s", item.ID, req.FlockID, today.Format("2006-01-02")),
			})
		}
	}

	batches, err := inventory.GetAvailableBatches(ctx, tx, item.ID)
	if err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "lock_stock_batches"))
	}

	trace, touched, err := DrawFIFO(batches, req.Quantity)
	if err != nil {
		if details, ok := internalerrors.GetInsufficientStockDetails(err); ok {
			// stock column and batches disagree
			details.ItemID = item.ID.String()
			l.deps.logger().Error("Batch total below item stock",
				"item_id", item.ID,
				"current_stock", item.CurrentStock.String(),
				"batch_total", details.Available)
		}
		return nil, recordSpanError(span, err)
	}

	if err = inventory.UpdateBatchQuantities(ctx, tx, touched); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "update_stock_batches"))
	}

	item.CurrentStock = item.CurrentStock.Sub(req.Quantity)
	item.UpdatedAt = now
	if req.FlockID != nil {
		item.LastConsumptionDate = &today
	}
	if err = inventory.UpdateItemStock(ctx, tx, item); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "update_item_stock"))
	}

	var record *models.ConsumptionRecord
	if req.FlockID != nil {
		record = &models.ConsumptionRecord{
			ID:               uuid.New(),
			FlockID:          *req.FlockID,
			InventoryItemID:  item.ID,
			RecordDate:       today,
			QuantityConsumed: req.Quantity,
			FIFODetails:      trace,
			RecordedBy:       req.RecordedBy,
			CreatedAt:        now,
		}
		if err = inventory.CreateConsumptionRecord(ctx, tx, record); err != nil {
			return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "create_consumption_record"))
		}
	}

	if err = txm.CommitTransaction(ctx, tx); err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to commit transaction"))
	}
	committed = true

	l.invalidateItem(ctx, item.ID)

	span.SetAttributes(attribute.Int("inventory.batches_drawn", len(trace)))
	l.deps.logger().Info("Stock consumed",
		"item_id", item.ID,
		"quantity", req.Quantity.String(),
		"batches_drawn", len(trace),
		"current_stock", item.CurrentStock.String())

	return &ConsumeResult{Item: item, Trace: trace, Record: record}, nil
}

// GetItemSummary returns the item with its derived metrics, cached in Redis
func (l *inventoryLedger) GetItemSummary(ctx context.Context, itemID uuid.UUID) (*models.InventoryItemSummary, error) {
	cacheKey := fmt.Sprintf(itemSummaryCacheKey, itemID.String())

	var cached models.InventoryItemSummary
	if cacheGet(ctx, l.deps, "item_summary", cacheKey, &cached) && cached.Item != nil {
		return &cached, nil
	}

	item, err := l.deps.Repositories.Inventory.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	summary := &models.InventoryItemSummary{
		Item:    item,
		Metrics: ComputeStockMetrics(item, l.deps.now()),
	}
	cacheSet(ctx, l.deps, cacheKey, summary)
	return summary, nil
}

// GetLedger lists every batch of the item, depleted ones included, and checks that
// they add up to the item stock
func (l *inventoryLedger) GetLedger(ctx context.Context, itemID uuid.UUID) (*models.LedgerView, error) {
	item, err := l.deps.Repositories.Inventory.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	batches, err := l.deps.Repositories.Reads.ListBatches(ctx, itemID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stock batches")
	}
	SortBatchesFIFO(batches)

	view := &models.LedgerView{Item: item, Batches: batches}
	for _, batch := range batches {
		view.BatchTotal = view.BatchTotal.Add(batch.CurrentQuantity)
	}
	view.Consistent = view.BatchTotal.Equal(item.CurrentStock)

	if !view.Consistent {
		l.deps.logger().Error("Inventory ledger drift detected",
			"item_id", itemID,
			"current_stock", item.CurrentStock.String(),
			"batch_total", view.BatchTotal.String())
	}
	return view, nil
}

// GetConsumptionHistory lists consumption records of an item between two dates inclusive
func (l *inventoryLedger) GetConsumptionHistory(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]*models.ConsumptionRecord, error) {
	if to.Before(from) {
		return nil, errors.Wrap(models.ErrInvalidPayload, "to must not be before from")
	}
	if _, err := l.deps.Repositories.Inventory.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	records, err := l.deps.Repositories.Reads.ListConsumptionRecords(ctx, itemID, models.DateOnly(from), models.DateOnly(to))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consumption records")
	}
	return records, nil
}

func (l *inventoryLedger) invalidateItem(ctx context.Context, itemID uuid.UUID) {
	// Data is already committed, a stale cache entry expires with its TTL
	if err := l.cacheManager.InvalidateItemCache(ctx, itemID); err != nil {
		l.deps.logger().Warn("Failed to invalidate item cache", "item_id", itemID, "error", err)
	}
}

func (l *inventoryLedger) recordOperation(operation string, start time.Time, err error) {
	if l.deps.Metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	l.deps.Metrics.RecordInventoryOperation(operation, status)
	l.deps.Metrics.RecordTransactionMetrics(operation, 1, time.Since(start))
}
