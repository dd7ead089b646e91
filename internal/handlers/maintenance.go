package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecomputeMetrics handles POST /internal/farm/metrics/recompute
func (h *FarmHandler) RecomputeMetrics(c *gin.Context) {
	updated, err := h.stockMetrics.RecomputeAll(c.Request.Context())
	if err != nil {
		h.respondError(c, "recompute_metrics", err)
		return
	}

	h.logger.Info("Consumption metrics recomputed on request",
		"service", c.GetString("service_name"),
		"items", updated)

	c.JSON(http.StatusOK, gin.H{"updated_items": updated})
}

// ClearCache handles POST /internal/farm/cache/clear
func (h *FarmHandler) ClearCache(c *gin.Context) {
	if err := h.cache.ClearAll(c.Request.Context()); err != nil {
		h.respondError(c, "clear_cache", err)
		return
	}

	h.logger.Info("Farm cache cleared", "service", c.GetString("service_name"))
	c.Status(http.StatusNoContent)
}
