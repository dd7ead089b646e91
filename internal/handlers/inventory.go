package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/avicola-track/farm-service/internal/auth"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// AddStock handles POST /api/farm/inventory/items/:id/stock
func (h *FarmHandler) AddStock(c *gin.Context) {
	itemID, ok := h.pathID(c, "item")
	if !ok {
		return
	}

	var req models.AddStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := models.ValidateAddStockRequest(&req); err != nil {
		h.respondError(c, "add_stock", err)
		return
	}

	batch, err := h.ledger.AddStock(c.Request.Context(), &service.AddStockInput{
		ItemID:     itemID,
		Quantity:   req.Quantity,
		EntryDate:  toTimePtr(req.EntryDate),
		Supplier:   req.Supplier,
		LotNumber:  req.LotNumber,
		ExpiryDate: toTimePtr(req.ExpiryDate),
	})
	if err != nil {
		h.respondError(c, "add_stock", err)
		return
	}

	h.logger.Info("Stock added",
		"item_id", itemID,
		"batch_id", batch.ID,
		"quantity", batch.InitialQuantity.String())

	c.JSON(http.StatusCreated, batch)
}

// ConsumeStock handles POST /api/farm/inventory/items/:id/consume
func (h *FarmHandler) ConsumeStock(c *gin.Context) {
	itemID, ok := h.pathID(c, "item")
	if !ok {
		return
	}

	var req models.ConsumeStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ledger.ConsumeFIFO(c.Request.Context(), &service.ConsumeInput{
		ItemID:     itemID,
		Quantity:   req.Quantity,
		FlockID:    req.FlockID,
		RecordedBy: auth.ActorFromContext(c),
	})
	if err != nil {
		h.respondError(c, "consume_fifo", err)
		return
	}

	h.logger.Info("Stock consumed",
		"item_id", itemID,
		"quantity", req.Quantity.String(),
		"batches_touched", len(result.Trace))

	c.JSON(http.StatusOK, models.ConsumeStockResponse{
		ItemID:       itemID,
		CurrentStock: result.Item.CurrentStock,
		Trace:        result.Trace,
		Record:       result.Record,
	})
}

// GetItem handles GET /api/farm/inventory/items/:id
func (h *FarmHandler) GetItem(c *gin.Context) {
	itemID, ok := h.pathID(c, "item")
	if !ok {
		return
	}

	summary, err := h.ledger.GetItemSummary(c.Request.Context(), itemID)
	if err != nil {
		h.respondError(c, "get_item", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetLedger handles GET /api/farm/inventory/items/:id/ledger
func (h *FarmHandler) GetLedger(c *gin.Context) {
	itemID, ok := h.pathID(c, "item")
	if !ok {
		return
	}

	ledger, err := h.ledger.GetLedger(c.Request.Context(), itemID)
	if err != nil {
		h.respondError(c, "get_ledger", err)
		return
	}
	if !ledger.Consistent {
		h.logger.Error("Batch total diverges from item stock",
			"item_id", itemID,
			"current_stock", ledger.Item.CurrentStock.String(),
			"batch_total", ledger.BatchTotal.String())
	}
	c.JSON(http.StatusOK, ledger)
}

// GetConsumptionHistory handles GET /api/farm/inventory/items/:id/consumption?from&to
func (h *FarmHandler) GetConsumptionHistory(c *gin.Context) {
	itemID, ok := h.pathID(c, "item")
	if !ok {
		return
	}

	from, to, err := h.dateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, "get_consumption_history", err)
		return
	}

	records, err := h.ledger.GetConsumptionHistory(c.Request.Context(), itemID, from, to)
	if err != nil {
		h.respondError(c, "get_consumption_history", err)
		return
	}

	c.JSON(http.StatusOK, models.ConsumptionHistoryResponse{
		ItemID:  itemID,
		From:    models.NewDate(from),
		To:      models.NewDate(to),
		Records: records,
	})
}

// UpdateMetrics handles POST /api/farm/inventory/items/:id/metrics
func (h *FarmHandler) UpdateMetrics(c *gin.Context) {
	itemID, ok := h.pathID(c, "item")
	if !ok {
		return
	}

	summary, err := h.stockMetrics.UpdateConsumptionMetrics(c.Request.Context(), itemID)
	if err != nil {
		h.respondError(c, "update_consumption_metrics", err)
		return
	}

	h.logger.Info("Consumption metrics updated",
		"item_id", itemID,
		"daily_avg", summary.Metrics.DailyAvgConsumption.String(),
		"status", summary.Metrics.Status)

	c.JSON(http.StatusOK, summary)
}

// dateRange resolves the from/to query pair; "to" defaults to today and "from"
// to defaultHistoryDays before it
func (h *FarmHandler) dateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	to := models.DateOnly(h.now())
	if toRaw != "" {
		parsed, err := models.ParseDate(toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "to")
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -defaultHistoryDays)
	if fromRaw != "" {
		parsed, err := models.ParseDate(fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "from")
		}
		from = parsed
	}
	return from, to, nil
}
