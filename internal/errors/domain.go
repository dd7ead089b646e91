package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidQuantityError is returned for zero or negative quantities and death counts
type InvalidQuantityError struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %s must be greater than 0, got %s", e.Field, e.Value)
}

// InsufficientStockError is returned when a consumption exceeds the item stock
type InsufficientStockError struct {
	ItemID    string `json:"item_id"`
	Requested string `json:"requested"`
	Available string `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: available %s, requested %s", e.ItemID, e.Available, e.Requested)
}

// ExceedsLiveCountError is returned when deaths exceed the live headcount of a flock
type ExceedsLiveCountError struct {
	FlockID   string `json:"flock_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *ExceedsLiveCountError) Error() string {
	return fmt.Sprintf("deaths exceed live count for flock %s: available %d, requested %d", e.FlockID, e.Available, e.Requested)
}

// DuplicateRecordConflictError is returned when a same-day record cannot be merged
// or a unique daily record already exists
type DuplicateRecordConflictError struct {
	Resource  string `json:"resource"`
	Key       string `json:"key"`
	Existing  int    `json:"existing,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
	Message   string `json:"message"`
}

func (e *DuplicateRecordConflictError) Error() string {
	return e.Message
}

// AlreadyResolvedError is returned when a terminal conflict is resolved again
type AlreadyResolvedError struct {
	ConflictID string `json:"conflict_id"`
	Status     string `json:"status"`
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("conflict %s is already resolved with status %s", e.ConflictID, e.Status)
}

// InvalidResolutionTypeError is returned for resolution types outside server/client/manual/ignore
type InvalidResolutionTypeError struct {
	ResolutionType string `json:"resolution_type"`
}

func (e *InvalidResolutionTypeError) Error() string {
	return fmt.Sprintf("invalid resolution type %q: expected one of server, client, manual, ignore", e.ResolutionType)
}

// RecordNotFoundError is returned when a flock, item or conflict does not exist
type RecordNotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`

	cause error
}

func (e *RecordNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *RecordNotFoundError) Unwrap() error {
	return e.cause
}

// NewRecordNotFound builds a RecordNotFoundError
func NewRecordNotFound(resource string, id fmt.Stringer) error {
	return &RecordNotFoundError{Resource: resource, ID: id.String()}
}

// IsInvalidQuantity checks if error is an invalid quantity error
func IsInvalidQuantity(err error) bool {
	var target *InvalidQuantityError
	return errors.As(err, &target)
}

// IsInsufficientStock checks if error is an insufficient stock error
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// GetInsufficientStockDetails extracts details from an insufficient stock error
func GetInsufficientStockDetails(err error) (*InsufficientStockError, bool) {
	var target *InsufficientStockError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsExceedsLiveCount checks if error is an exceeds-live-count error
func IsExceedsLiveCount(err error) bool {
	var target *ExceedsLiveCountError
	return errors.As(err, &target)
}

// IsDuplicateRecordConflict checks if error is a duplicate record conflict
func IsDuplicateRecordConflict(err error) bool {
	var target *DuplicateRecordConflictError
	return errors.As(err, &target)
}

// IsAlreadyResolved checks if error is an already-resolved error
func IsAlreadyResolved(err error) bool {
	var target *AlreadyResolvedError
	return errors.As(err, &target)
}

// IsInvalidResolutionType checks if error is an invalid resolution type error
func IsInvalidResolutionType(err error) bool {
	var target *InvalidResolutionTypeError
	return errors.As(err, &target)
}

// IsRecordNotFound checks if error is a record-not-found error
func IsRecordNotFound(err error) bool {
	var target *RecordNotFoundError
	return errors.As(err, &target)
}
