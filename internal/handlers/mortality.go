package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avicola-track/farm-service/internal/auth"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// RegisterMortality handles POST /api/farm/flocks/:id/mortality
func (h *FarmHandler) RegisterMortality(c *gin.Context) {
	flockID, ok := h.pathID(c, "flock")
	if !ok {
		return
	}

	var req models.RegisterMortalityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := models.ValidateRegisterMortalityRequest(&req); err != nil {
		h.respondError(c, "register_mortality", err)
		return
	}

	cmd := &service.MortalityCommand{
		FlockID:    flockID,
		Date:       req.Date.Time,
		Deaths:     req.Deaths,
		Notes:      req.Notes,
		ClientID:   req.ClientID,
		RecordedBy: auth.ActorFromContext(c),
	}
	if req.CauseName != nil {
		cmd.CauseName = *req.CauseName
	}

	app, err := h.mortality.RegisterMortality(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, "register_mortality", err)
		return
	}

	status := http.StatusCreated
	if app.Merged {
		status = http.StatusOK
	}
	c.JSON(status, app)
}

// GetMortalityStats handles GET /api/farm/flocks/:id/mortality/stats?days
func (h *FarmHandler) GetMortalityStats(c *gin.Context) {
	flockID, ok := h.pathID(c, "flock")
	if !ok {
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_days",
				Message: "days must be a positive integer",
				Details: map[string]interface{}{"days": raw},
			})
			return
		}
		days = parsed
	}

	stats, err := h.mortality.CalculateMortalityStats(c.Request.Context(), flockID, days)
	if err != nil {
		h.respondError(c, "mortality_stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SyncMortality handles POST /api/farm/sync/mortality. Items fail independently;
// the response is 200 whenever the envelope itself is valid.
func (h *FarmHandler) SyncMortality(c *gin.Context) {
	var req models.BulkMortalitySyncRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.respondError(c, "sync_mortality", err)
		return
	}

	response, err := h.mortality.SyncMortality(c.Request.Context(), req.Items, auth.ActorFromContext(c))
	if err != nil {
		h.respondError(c, "sync_mortality", err)
		return
	}

	h.logger.Info("Mortality sync processed",
		"items", len(req.Items),
		"succeeded", response.Succeeded,
		"failed", response.Failed)

	c.JSON(http.StatusOK, response)
}
