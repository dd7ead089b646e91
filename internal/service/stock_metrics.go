package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/avicola-track/farm-service/internal/models"
)

const (
	// ConsumptionWindowDays is the fixed trailing window of the daily average
	ConsumptionWindowDays = 30
)

var consumptionWindow = decimal.NewFromInt(ConsumptionWindowDays)

// DailyAverage divides a window total by the fixed window length
func DailyAverage(total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return total.Div(consumptionWindow)
}

// ClassifyStockStatus is checked in order: out of stock, unknown, critical, low, normal
func ClassifyStockStatus(stock, avg decimal.Decimal, alertDays, criticalDays int) models.StockStatus {
	if !stock.IsPositive() {
		return models.StockStatusOutOfStock
	}
	if !avg.IsPositive() {
		return models.StockStatusUnknown
	}

	daysRemaining := stock.Div(avg)
	switch {
	case daysRemaining.LessThanOrEqual(decimal.NewFromInt(int64(criticalDays))):
		return models.StockStatusCritical
	case daysRemaining.LessThanOrEqual(decimal.NewFromInt(int64(alertDays))):
		return models.StockStatusLow
	default:
		return models.StockStatusNormal
	}
}

// ProjectedStockoutDate is today plus the floored days remaining; nil without consumption
func ProjectedStockoutDate(stock, avg decimal.Decimal, today time.Time) *time.Time {
	if !avg.IsPositive() {
		return nil
	}
	days := stock.Div(avg).Floor().IntPart()
	if days < 0 {
		days = 0
	}
	date := models.DateOnly(today).AddDate(0, 0, int(days))
	return &date
}

// ComputeStockMetrics derives the metrics view of an item at the given day
func ComputeStockMetrics(item *models.InventoryItem, today time.Time) *models.StockMetrics {
	alertDays, criticalDays := thresholdDays(item)
	metrics := &models.StockMetrics{
		CurrentStock:          item.CurrentStock,
		DailyAvgConsumption:   item.DailyAvgConsumption,
		ProjectedStockoutDate: ProjectedStockoutDate(item.CurrentStock, item.DailyAvgConsumption, today),
		Status:                ClassifyStockStatus(item.CurrentStock, item.DailyAvgConsumption, alertDays, criticalDays),
	}
	if item.DailyAvgConsumption.IsPositive() {
		days := item.CurrentStock.Div(item.DailyAvgConsumption).Round(2)
		metrics.DaysRemaining = &days
	}
	return metrics
}

func thresholdDays(item *models.InventoryItem) (int, int) {
	alertDays := item.AlertThresholdDays
	if alertDays <= 0 {
		alertDays = models.DefaultAlertThresholdDays
	}
	criticalDays := item.CriticalThresholdDays
	if criticalDays <= 0 {
		criticalDays = models.DefaultCriticalThresholdDays
	}
	return alertDays, criticalDays
}

// stockMetricsUpdater implements StockMetricsUpdater
type stockMetricsUpdater struct {
	deps         *ServiceDependencies
	cacheManager CacheManager
}

// NewStockMetricsUpdater creates a new consumption metrics updater
func NewStockMetricsUpdater(deps *ServiceDependencies) StockMetricsUpdater {
	return &stockMetricsUpdater{
		deps:         deps,
		cacheManager: NewCacheManager(deps),
	}
}

// UpdateConsumptionMetrics recomputes the trailing 30 day average of an item
func (u *stockMetricsUpdater) UpdateConsumptionMetrics(ctx context.Context, itemID uuid.UUID) (*models.InventoryItemSummary, error) {
	ctx, span := tracer.Start(ctx, "inventory.update_consumption_metrics")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID.String()))

	inventory := u.deps.Repositories.Inventory
	if _, err := inventory.GetItem(ctx, itemID); err != nil {
		return nil, recordSpanError(span, err)
	}

	today := models.DateOnly(u.deps.now())
	from := today.AddDate(0, 0, -ConsumptionWindowDays)

	total, err := inventory.SumConsumption(ctx, itemID, from, today)
	if err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to sum consumption"))
	}
	avg := DailyAverage(total)

	last, err := inventory.LatestConsumptionDate(ctx, itemID)
	if err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to get latest consumption date"))
	}

	if err := inventory.UpdateConsumptionMetrics(ctx, itemID, avg, last); err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to store consumption metrics"))
	}

	item, err := inventory.GetItem(ctx, itemID)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	if err := u.cacheManager.InvalidateItemCache(ctx, itemID); err != nil {
		u.deps.logger().Warn("Failed to invalidate item cache", "item_id", itemID, "error", err)
	}

	summary := &models.InventoryItemSummary{Item: item, Metrics: ComputeStockMetrics(item, today)}
	u.deps.logger().Debug("Consumption metrics updated",
		"item_id", itemID,
		"window_total", total.String(),
		"daily_avg", avg.String(),
		"status", summary.Metrics.Status)
	return summary, nil
}

// RecomputeAll updates every item and returns how many succeeded; failures are logged
func (u *stockMetricsUpdater) RecomputeAll(ctx context.Context) (int, error) {
	itemIDs, err := u.deps.Repositories.Inventory.ListItemIDs(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list inventory items")
	}

	updated := 0
	for _, itemID := range itemIDs {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		if _, err := u.UpdateConsumptionMetrics(ctx, itemID); err != nil {
			u.deps.logger().Error("Failed to update consumption metrics", "item_id", itemID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}
