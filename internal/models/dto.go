package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Date is a calendar day carried as "YYYY-MM-DD" on the wire
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day
func NewDate(t time.Time) Date {
	return Date{Time: DateOnly(t)}
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full RFC 3339 timestamps
func (d *Date) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}

// MarshalJSON writes the day only
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// ParseDate parses an ISO date into UTC midnight
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return DateOnly(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidPayload, value)
}

// DateOnly returns UTC midnight of the day t falls on
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddStockRequest registers a new FIFO batch
type AddStockRequest struct {
	Quantity   decimal.Decimal `json:"quantity"`
	EntryDate  *Date           `json:"entry_date,omitempty"`
	Supplier   *string         `json:"supplier,omitempty" validate:"omitempty,max=100"`
	LotNumber  *string         `json:"lot_number,omitempty" validate:"omitempty,max=50"`
	ExpiryDate *Date           `json:"expiry_date,omitempty"`
}

// ConsumeStockRequest draws stock in FIFO order
type ConsumeStockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	FlockID  *uuid.UUID      `json:"flock_id,omitempty"`
}

// ConsumeStockResponse returns the trace of a consumption
type ConsumeStockResponse struct {
	ItemID       uuid.UUID          `json:"item_id"`
	CurrentStock decimal.Decimal    `json:"current_stock"`
	Trace        FIFOTrace          `json:"fifo_details"`
	Record       *ConsumptionRecord `json:"consumption_record,omitempty"`
}

// RegisterMortalityRequest applies deaths to a flock
type RegisterMortalityRequest struct {
	Date      Date    `json:"date"`
	Deaths    int     `json:"deaths"`
	CauseName *string `json:"cause_name,omitempty" validate:"omitempty,max=100"`
	Notes     string  `json:"notes,omitempty" validate:"max=500"`
	ClientID  *string `json:"client_id,omitempty" validate:"omitempty,max=100"`
}

// MortalitySyncItem is one offline mortality submission
type MortalitySyncItem struct {
	ClientID  string    `json:"client_id"`
	FlockID   uuid.UUID `json:"flock_id"`
	Date      string    `json:"date"`
	Deaths    int       `json:"deaths"`
	CauseName string    `json:"cause_name,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// BulkMortalitySyncRequest is validated as a whole; items are validated one by one
type BulkMortalitySyncRequest struct {
	Items []MortalitySyncItem `json:"items" validate:"required,min=1,max=500"`
}

// Sync item outcomes
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
	SyncActionCreated = "created"
	SyncActionUpdated = "updated"
)

// SyncItemResult reports what happened to one bulk item
type SyncItemResult struct {
	ClientID string     `json:"client_id"`
	Status   string     `json:"status"`
	Action   string     `json:"action,omitempty"`
	ServerID *uuid.UUID `json:"server_id,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// BulkSyncResponse lists the per-item results in input order
type BulkSyncResponse struct {
	Results   []SyncItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// ReportConflictRequest stores a client-detected conflict
type ReportConflictRequest struct {
	RecordType string     `json:"record_type" validate:"required,max=50"`
	DeviceID   string     `json:"device_id" validate:"required,max=100"`
	FarmID     *uuid.UUID `json:"farm_id,omitempty"`
	ClientData JSONMap    `json:"client_data" validate:"required"`
}

// ResolveConflictRequest applies a resolution strategy
type ResolveConflictRequest struct {
	ResolutionType string  `json:"resolution_type" validate:"required,max=20"`
	ResolutionData JSONMap `json:"resolution_data,omitempty"`
	Notes          string  `json:"notes,omitempty" validate:"max=1000"`
}

// ConflictFilter narrows conflict listings
type ConflictFilter struct {
	Status     string     `form:"status"`
	Priority   string     `form:"priority"`
	RecordType string     `form:"record_type"`
	FarmID     *uuid.UUID `form:"-"`
	Limit      int        `form:"limit"`
	Offset     int        `form:"offset"`
}

// ConflictListResponse is a page of conflicts
type ConflictListResponse struct {
	Conflicts []*SyncConflict `json:"conflicts"`
	Count     int             `json:"count"`
}

// ConsumptionHistoryResponse lists consumption records of an item
type ConsumptionHistoryResponse struct {
	ItemID  uuid.UUID            `json:"item_id"`
	From    Date                 `json:"from"`
	To      Date                 `json:"to"`
	Records []*ConsumptionRecord `json:"records"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
