package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

// errorStatus maps a service error to its HTTP status and response body
func errorStatus(err error) (int, models.ErrorResponse) {
	var (
		validationErrs validator.ValidationErrors
		invalidQty     *internalerrors.InvalidQuantityError
		notFound       *internalerrors.RecordNotFoundError
		insufficient   *internalerrors.InsufficientStockError
		exceeds        *internalerrors.ExceedsLiveCountError
		duplicate      *internalerrors.DuplicateRecordConflictError
		resolved       *internalerrors.AlreadyResolvedError
		resolutionType *internalerrors.InvalidResolutionTypeError
		concurrent     *internalerrors.ConcurrentOperationError
	)

	switch {
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Details: models.FieldErrors(err),
		}
	case errors.As(err, &invalidQty):
		return http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_quantity",
			Message: invalidQty.Error(),
			Details: map[string]interface{}{invalidQty.Field: invalidQty.Value},
		}
	case errors.As(err, &resolutionType):
		return http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_resolution_type",
			Message: resolutionType.Error(),
			Details: map[string]interface{}{
				"resolution_type": resolutionType.ResolutionType,
				"allowed":         []string{"server", "client", "manual", "ignore"},
			},
		}
	case errors.Is(err, models.ErrInvalidPayload), errors.Is(err, models.ErrInvalidUUID):
		return http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_payload",
			Message: err.Error(),
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: notFound.Error(),
			Details: map[string]interface{}{"resource": notFound.Resource, "id": notFound.ID},
		}
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "insufficient_stock",
			Message: insufficient.Error(),
			Details: map[string]interface{}{
				"item_id":   insufficient.ItemID,
				"available": insufficient.Available,
				"requested": insufficient.Requested,
			},
		}
	case errors.As(err, &exceeds):
		return http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "exceeds_live_count",
			Message: exceeds.Error(),
			Details: map[string]interface{}{
				"flock_id":  exceeds.FlockID,
				"available": exceeds.Available,
				"requested": exceeds.Requested,
			},
		}
	case errors.As(err, &duplicate):
		return http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "duplicate_record",
			Message: duplicate.Error(),
			Details: map[string]interface{}{
				"resource":  duplicate.Resource,
				"key":       duplicate.Key,
				"existing":  duplicate.Existing,
				"requested": duplicate.Requested,
				"available": duplicate.Available,
			},
		}
	case errors.As(err, &resolved):
		return http.StatusConflict, models.ErrorResponse{
			Error:   "already_resolved",
			Message: resolved.Error(),
			Details: map[string]interface{}{"conflict_id": resolved.ConflictID, "status": resolved.Status},
		}
	case errors.As(err, &concurrent):
		return http.StatusConflict, models.ErrorResponse{
			Error:   "concurrent_operation",
			Message: "The record is being modified by another request",
			Details: map[string]interface{}{"resource": concurrent.Resource, "retry": true},
		}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		}
	}
}

// respondError writes the mapped error; only unexpected failures are logged as errors
func (h *FarmHandler) respondError(c *gin.Context, operation string, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "operation", operation, "error", err)
		_ = c.Error(err)
	} else {
		h.logger.Warn("Request rejected", "operation", operation, "status", status, "error", err)
	}
	c.JSON(status, body)
}
