package errors

import (
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// PostgreSQL error codes
const (
	// Check violation (constraint failed)
	PgErrorCodeCheckViolation = "23514"
	// Unique violation
	PgErrorCodeUniqueViolation = "23505"
	// Foreign key violation
	PgErrorCodeForeignKeyViolation = "23503"
	// Not null violation
	PgErrorCodeNotNullViolation = "23502"
	// Lock not available (FOR UPDATE NOWAIT failed)
	PgErrorCodeLockNotAvailable = "55P03"
)

// ConcurrentOperationError represents a race condition or lock contention
type ConcurrentOperationError struct {
	Operation string `json:"operation"`
	Resource  string `json:"resource"`
	Message   string `json:"message"`
}

func (e *ConcurrentOperationError) Error() string {
	return e.Message
}

// HandleDatabaseError converts PostgreSQL errors to business-specific errors
func HandleDatabaseError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Handle pgx.ErrNoRows
	if errors.Is(err, pgx.ErrNoRows) {
		return &RecordNotFoundError{Resource: resourceFromOperation(operation), cause: err}
	}

	// Handle PostgreSQL errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return handlePostgreSQLError(pgErr, operation)
	}

	// Check for lock contention reported without a PgError
	if strings.Contains(err.Error(), "could not obtain lock") {
		return &ConcurrentOperationError{
			Operation: operation,
			Resource:  "unknown_resource",
			Message:   "Resource is currently being processed by another transaction. Please retry.",
		}
	}

	// Return original error for unhandled cases
	return err
}

// handlePostgreSQLError handles specific PostgreSQL error codes
func handlePostgreSQLError(pgErr *pgconn.PgError, operation string) error {
	switch pgErr.Code {
	case PgErrorCodeCheckViolation:
		switch {
		case strings.Contains(pgErr.ConstraintName, "current_stock"),
			strings.Contains(pgErr.ConstraintName, "batch_quantity"):
			return &InsufficientStockError{Requested: "unknown", Available: "unknown"}
		case strings.Contains(pgErr.ConstraintName, "flock_quantity"):
			return &ExceedsLiveCountError{}
		}
		return errors.Errorf("constraint violation during %s: %s", operation, pgErr.Message)

	case PgErrorCodeLockNotAvailable:
		return &ConcurrentOperationError{
			Operation: operation,
			Resource:  extractResourceFromConstraint(pgErr.TableName),
			Message:   "Resource is currently locked by another transaction. Please retry.",
		}

	case PgErrorCodeUniqueViolation:
		return &DuplicateRecordConflictError{
			Resource: extractResourceFromConstraint(pgErr.ConstraintName),
			Key:      pgErr.ConstraintName,
			Message:  "duplicate " + operation + ": " + pgErr.Message,
		}

	case PgErrorCodeForeignKeyViolation:
		return errors.Errorf("invalid reference during %s: %s", operation, pgErr.Message)

	case PgErrorCodeNotNullViolation:
		return errors.Errorf("missing required field during %s: %s", operation, pgErr.Message)

	default:
		return errors.Errorf("database error during %s: %s", operation, pgErr.Message)
	}
}

// extractResourceFromConstraint maps constraint or table names to resource names
func extractResourceFromConstraint(name string) string {
	if name == "" {
		return "unknown_resource"
	}

	switch {
	case strings.Contains(name, "consumption"):
		return "consumption_record"
	case strings.Contains(name, "mortality"):
		return "mortality_record"
	case strings.Contains(name, "weight"):
		return "weight_record"
	case strings.Contains(name, "batch"):
		return "stock_batch"
	case strings.Contains(name, "inventory"):
		return "inventory_item"
	case strings.Contains(name, "flock"):
		return "flock"
	case strings.Contains(name, "conflict"):
		return "sync_conflict"
	default:
		return name
	}
}

// resourceFromOperation turns "lock_inventory_item" or "get flock" into the resource name
func resourceFromOperation(operation string) string {
	parts := strings.Fields(strings.ReplaceAll(operation, "_", " "))
	if len(parts) > 1 {
		switch parts[0] {
		case "get", "lock", "update", "create", "scan", "insert", "delete", "list":
			parts = parts[1:]
		}
	}
	if len(parts) == 0 {
		return "record"
	}
	return strings.Join(parts, "_")
}

// IsConcurrentOperationError checks if error is a concurrent operation error
func IsConcurrentOperationError(err error) bool {
	var concurrentErr *ConcurrentOperationError
	return errors.As(err, &concurrentErr)
}

// GetConcurrentOperationDetails extracts details from concurrent operation error
func GetConcurrentOperationDetails(err error) (*ConcurrentOperationError, bool) {
	var concurrentErr *ConcurrentOperationError
	if errors.As(err, &concurrentErr) {
		return concurrentErr, true
	}
	return nil, false
}
