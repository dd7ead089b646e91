package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// defaultHistoryDays is the consumption history window when no range is given
const defaultHistoryDays = 30

// FarmHandler handles the inventory, mortality and sync endpoints
type FarmHandler struct {
	ledger       service.InventoryLedger
	stockMetrics service.StockMetricsUpdater
	mortality    service.MortalityService
	conflicts    service.ConflictService
	cache        service.CacheManager
	logger       *slog.Logger
	validator    *validator.Validate
	now          func() time.Time
}

// NewFarmHandler creates a new farm handler
func NewFarmHandler(svc *service.Service, logger *slog.Logger) *FarmHandler {
	return &FarmHandler{
		ledger:       svc.Ledger,
		stockMetrics: svc.StockMetrics,
		mortality:    svc.Mortality,
		conflicts:    svc.Conflicts,
		cache:        svc.Cache,
		logger:       logger,
		validator:    models.Validator(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// pathID parses the :id parameter, answering 400 itself when it is not a UUID
func (h *FarmHandler) pathID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err == nil {
		err = models.ValidateUUID(id)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_" + resource + "_id",
			Message: "Invalid " + resource + " ID format",
			Details: map[string]interface{}{"id": c.Param("id")},
		})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body, answering 400 itself on malformed JSON
func (h *FarmHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Failed to parse request body", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
			Details: map[string]interface{}{"validation_error": err.Error()},
		})
		return false
	}
	return true
}

func toTimePtr(d *models.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
