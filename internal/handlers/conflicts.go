package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avicola-track/farm-service/internal/auth"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// ReportConflict handles POST /api/farm/sync/conflicts
func (h *FarmHandler) ReportConflict(c *gin.Context) {
	var req models.ReportConflictRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := models.ValidateReportConflictRequest(&req); err != nil {
		h.respondError(c, "report_conflict", err)
		return
	}

	conflict, err := h.conflicts.ReportConflict(c.Request.Context(), &req, auth.ActorFromContext(c))
	if err != nil {
		h.respondError(c, "report_conflict", err)
		return
	}
	c.JSON(http.StatusCreated, conflict)
}

// ListConflicts handles GET /api/farm/sync/conflicts
func (h *FarmHandler) ListConflicts(c *gin.Context) {
	var filter models.ConflictFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_query",
			Message: "Invalid query parameters",
			Details: map[string]interface{}{"validation_error": err.Error()},
		})
		return
	}
	if raw := c.Query("farm_id"); raw != "" {
		farmID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_farm_id",
				Message: "Invalid farm ID format",
				Details: map[string]interface{}{"farm_id": raw},
			})
			return
		}
		filter.FarmID = &farmID
	}

	conflicts, err := h.conflicts.ListConflicts(c.Request.Context(), &filter)
	if err != nil {
		h.respondError(c, "list_conflicts", err)
		return
	}

	c.JSON(http.StatusOK, models.ConflictListResponse{
		Conflicts: conflicts,
		Count:     len(conflicts),
	})
}

// GetConflict handles GET /api/farm/sync/conflicts/:id
func (h *FarmHandler) GetConflict(c *gin.Context) {
	conflictID, ok := h.pathID(c, "conflict")
	if !ok {
		return
	}

	conflict, err := h.conflicts.GetConflict(c.Request.Context(), conflictID)
	if err != nil {
		h.respondError(c, "get_conflict", err)
		return
	}
	c.JSON(http.StatusOK, conflict)
}

// ResolveConflict handles POST /api/farm/sync/conflicts/:id/resolve
func (h *FarmHandler) ResolveConflict(c *gin.Context) {
	conflictID, ok := h.pathID(c, "conflict")
	if !ok {
		return
	}

	var req models.ResolveConflictRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := models.ValidateResolveConflictRequest(&req); err != nil {
		h.respondError(c, "resolve_conflict", err)
		return
	}

	conflict, err := h.conflicts.ResolveConflict(c.Request.Context(), &service.ResolveInput{
		ConflictID:     conflictID,
		ResolutionType: models.ResolutionType(req.ResolutionType),
		ResolutionData: req.ResolutionData,
		Notes:          req.Notes,
		Actor:          auth.ActorFromContext(c),
	})
	if err != nil {
		h.respondError(c, "resolve_conflict", err)
		return
	}

	h.logger.Info("Conflict resolved",
		"conflict_id", conflictID,
		"status", conflict.ResolutionStatus)

	c.JSON(http.StatusOK, conflict)
}
