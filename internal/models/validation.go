package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID indicates that a UUID is invalid
	ErrInvalidUUID = errors.New("invalid UUID")

	// ErrInvalidPayload indicates a malformed request or client payload
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidUnit indicates an unsupported inventory unit
	ErrInvalidUnit = errors.New("invalid unit")
)

// validate is the validator instance; field names in errors follow json tags
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator exposes the shared validator instance to handlers
func Validator() *validator.Validate {
	return validate
}

// ValidateUUID validates that a UUID is not zero
func ValidateUUID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: UUID cannot be nil", ErrInvalidUUID)
	}
	return nil
}

// ValidateUnit checks that unit is one of KG, TON, BAG or LB
func ValidateUnit(unit InventoryUnit) error {
	switch InventoryUnit(strings.ToUpper(string(unit))) {
	case UnitKilogram, UnitTon, UnitBag, UnitPound:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidUnit, unit)
	}
}

// ValidateAddStockRequest validates an AddStockRequest
func ValidateAddStockRequest(req *AddStockRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if req.EntryDate != nil && req.ExpiryDate != nil && req.ExpiryDate.Before(req.EntryDate.Time) {
		return fmt.Errorf("%w: expiry_date cannot be before entry_date", ErrInvalidPayload)
	}
	return nil
}

// ValidateRegisterMortalityRequest validates a RegisterMortalityRequest
func ValidateRegisterMortalityRequest(req *RegisterMortalityRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidPayload)
	}
	return nil
}

// ValidateMortalitySyncItem validates one bulk item; deaths are checked by the applier
func ValidateMortalitySyncItem(item *MortalitySyncItem) error {
	if strings.TrimSpace(item.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrInvalidPayload)
	}
	if len(item.ClientID) > 100 {
		return fmt.Errorf("%w: client_id cannot exceed 100 characters", ErrInvalidPayload)
	}
	if err := ValidateUUID(item.FlockID); err != nil {
		return fmt.Errorf("flock_id: %w", err)
	}
	if _, err := ParseDate(item.Date); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if len(item.CauseName) > 100 {
		return fmt.Errorf("%w: cause_name cannot exceed 100 characters", ErrInvalidPayload)
	}
	return nil
}

// ValidateReportConflictRequest validates a ReportConflictRequest
func ValidateReportConflictRequest(req *ReportConflictRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if len(req.ClientData) == 0 {
		return fmt.Errorf("%w: client_data cannot be empty", ErrInvalidPayload)
	}
	return nil
}

// ValidateResolveConflictRequest validates the request shape; the resolution type
// itself is checked by the resolver
func ValidateResolveConflictRequest(req *ResolveConflictRequest) error {
	return validate.Struct(req)
}

// FieldErrors flattens validator errors into field -> message pairs
func FieldErrors(err error) map[string]interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if fe.Param() != "" {
			fields[name] = fmt.Sprintf("failed on '%s=%s'", fe.Tag(), fe.Param())
		} else {
			fields[name] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
	}
	return fields
}
