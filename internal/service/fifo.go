package service

import (
	"sort"

	"github.com/shopspring/decimal"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

// SortBatchesFIFO orders batches oldest first: entry_date, then insertion sequence.
// Wall-clock creation time is not used, so a frozen or skewed clock cannot reorder lots.
func SortBatchesFIFO(batches []*models.StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		return a.Seq < b.Seq
	})
}

// DrawFIFO draws quantity from batches oldest first, decrementing them in place.
// It returns the trace and the batches that were touched, in draw order.
// Batches with no remaining quantity are skipped. If the batches cannot cover the
// quantity, nothing is mutated and an InsufficientStockError is returned.
func DrawFIFO(batches []*models.StockBatch, quantity decimal.Decimal) (models.FIFOTrace, []*models.StockBatch, error) {
	if !quantity.IsPositive() {
		return nil, nil, &internalerrors.InvalidQuantityError{Field: "quantity", Value: quantity.String()}
	}

	ordered := make([]*models.StockBatch, 0, len(batches))
	available := decimal.Zero
	for _, batch := range batches {
		if batch.CurrentQuantity.IsPositive() {
			ordered = append(ordered, batch)
			available = available.Add(batch.CurrentQuantity)
		}
	}
	if available.LessThan(quantity) {
		return nil, nil, &internalerrors.InsufficientStockError{
			Available: available.String(),
			Requested: quantity.String(),
		}
	}
	SortBatchesFIFO(ordered)

	remaining := quantity
	trace := make(models.FIFOTrace, 0, len(ordered))
	touched := make([]*models.StockBatch, 0, len(ordered))

	for _, batch := range ordered {
		if !remaining.IsPositive() {
			break
		}

		draw := decimal.Min(remaining, batch.CurrentQuantity)
		batch.CurrentQuantity = batch.CurrentQuantity.Sub(draw)
		remaining = remaining.Sub(draw)

		trace = append(trace, models.FIFOTraceEntry{
			BatchID:             batch.ID,
			EntryDate:           batch.EntryDate,
			QuantityConsumed:    draw,
			BatchRemainingAfter: batch.CurrentQuantity,
		})
		touched = append(touched, batch)
	}

	return trace, touched, nil
}
