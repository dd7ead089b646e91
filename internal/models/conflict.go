package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConflictType is the verdict kind of a sync conflict
type ConflictType string

const (
	ConflictTypeDuplicate     ConflictType = "DUPLICATE"
	ConflictTypeTimestampDiff ConflictType = "TIMESTAMP_DIFF"
	ConflictTypeDataMismatch  ConflictType = "DATA_MISMATCH"
	ConflictTypePermission    ConflictType = "PERMISSION"
	ConflictTypeValidation    ConflictType = "VALIDATION"
)

// ConflictPriority orders conflicts for human review
type ConflictPriority string

const (
	PriorityLow    ConflictPriority = "LOW"
	PriorityMedium ConflictPriority = "MEDIUM"
	PriorityHigh   ConflictPriority = "HIGH"
)

// ResolutionStatus is the state of a conflict. Every non-pending status is terminal.
type ResolutionStatus string

const (
	ResolutionPending        ResolutionStatus = "PENDING"
	ResolutionResolvedServer ResolutionStatus = "RESOLVED_SERVER"
	ResolutionResolvedClient ResolutionStatus = "RESOLVED_CLIENT"
	ResolutionResolvedManual ResolutionStatus = "RESOLVED_MANUAL"
	ResolutionIgnored        ResolutionStatus = "IGNORED"
)

// IsTerminal reports whether no further transition is allowed
func (s ResolutionStatus) IsTerminal() bool {
	return s != ResolutionPending
}

// ResolutionType selects the resolution strategy
type ResolutionType string

const (
	ResolutionTypeServer ResolutionType = "server"
	ResolutionTypeClient ResolutionType = "client"
	ResolutionTypeManual ResolutionType = "manual"
	ResolutionTypeIgnore ResolutionType = "ignore"
)

// TargetStatus maps a resolution type to the status it produces
func (t ResolutionType) TargetStatus() (ResolutionStatus, bool) {
	switch t {
	case ResolutionTypeServer:
		return ResolutionResolvedServer, true
	case ResolutionTypeClient:
		return ResolutionResolvedClient, true
	case ResolutionTypeManual:
		return ResolutionResolvedManual, true
	case ResolutionTypeIgnore:
		return ResolutionIgnored, true
	default:
		return "", false
	}
}

// Record types understood by the sync boundary
const (
	RecordTypeMortality = "mortality"
	RecordTypeWeight    = "weight"
)

// JSONMap is a free-form jsonb document
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
}

// SyncConflict records a disagreement between a client submission and server state
type SyncConflict struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	FarmID           *uuid.UUID       `json:"farm_id,omitempty" db:"farm_id"`
	ConflictType     ConflictType     `json:"conflict_type" db:"conflict_type"`
	RecordType       string           `json:"record_type" db:"record_type"`
	ServerData       JSONMap          `json:"server_data" db:"server_data"`
	ClientData       JSONMap          `json:"client_data" db:"client_data"`
	DeviceInfo       JSONMap          `json:"device_info" db:"device_info"`
	Priority         ConflictPriority `json:"priority" db:"priority"`
	ResolutionStatus ResolutionStatus `json:"resolution_status" db:"resolution_status"`
	ReportedBy       *uuid.UUID       `json:"reported_by,omitempty" db:"reported_by"`
	ResolvedBy       *uuid.UUID       `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolutionData   JSONMap          `json:"resolution_data,omitempty" db:"resolution_data"`
	ResolutionNotes  string           `json:"resolution_notes" db:"resolution_notes"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// Verdict is the classifier output
type Verdict struct {
	Type     ConflictType     `json:"type"`
	Priority ConflictPriority `json:"priority"`
}

// ServerRecord is existing server state a client payload is compared against
type ServerRecord interface {
	ServerRecordID() uuid.UUID
	ServerCreatedAt() time.Time
}

func (r *MortalityRecord) ServerRecordID() uuid.UUID  { return r.ID }
func (r *MortalityRecord) ServerCreatedAt() time.Time { return r.CreatedAt }
func (r *WeightRecord) ServerRecordID() uuid.UUID     { return r.ID }
func (r *WeightRecord) ServerCreatedAt() time.Time    { return r.CreatedAt }

// ServerSnapshot renders a server record into the stored server_data document
func ServerSnapshot(record ServerRecord) JSONMap {
	if record == nil {
		return JSONMap{"id": nil, "data": JSONMap{}}
	}
	data := JSONMap{}
	raw, err := json.Marshal(record)
	if err == nil {
		_ = json.Unmarshal(raw, &data)
	}
	return JSONMap{"id": record.ServerRecordID().String(), "data": data}
}

// ConflictPayload is the typed client side of a conflict
type ConflictPayload interface {
	RecordType() string
	ClientTimestamp() *time.Time
}

// MortalityConflictPayload is a client-submitted mortality record
type MortalityConflictPayload struct {
	FlockID   uuid.UUID
	Date      time.Time
	Deaths    int
	CauseName string
	ClientID  string
	Timestamp *time.Time
}

func (p *MortalityConflictPayload) RecordType() string          { return RecordTypeMortality }
func (p *MortalityConflictPayload) ClientTimestamp() *time.Time { return p.Timestamp }

// WeightConflictPayload is a client-submitted weight sample
type WeightConflictPayload struct {
	FlockID       uuid.UUID
	Date          time.Time
	AverageWeight decimal.Decimal
	ClientID      string
	Timestamp     *time.Time
}

func (p *WeightConflictPayload) RecordType() string          { return RecordTypeWeight }
func (p *WeightConflictPayload) ClientTimestamp() *time.Time { return p.Timestamp }

// GenericConflictPayload carries record types without domain-specific handling
type GenericConflictPayload struct {
	Type      string
	Data      JSONMap
	Timestamp *time.Time
}

func (p *GenericConflictPayload) RecordType() string          { return p.Type }
func (p *GenericConflictPayload) ClientTimestamp() *time.Time { return p.Timestamp }

type conflictPayloadWire struct {
	Type          string           `json:"type"`
	FlockID       string           `json:"flock_id"`
	Date          string           `json:"date"`
	Deaths        *int             `json:"deaths"`
	AverageWeight *decimal.Decimal `json:"average_weight"`
	CauseName     string           `json:"cause_name"`
	ClientID      string           `json:"client_id"`
	Timestamp     string           `json:"timestamp"`
}

// DecodeConflictPayload turns a stored client_data document into its variant.
// recordType wins over the payload's own "type" field when both are set.
func DecodeConflictPayload(recordType string, data JSONMap) (ConflictPayload, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: client_data is not serialisable", ErrInvalidPayload)
	}

	var wire conflictPayloadWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	kind := strings.ToLower(strings.TrimSpace(recordType))
	if kind == "" {
		kind = strings.ToLower(wire.Type)
	}
	timestamp := ParseClientTimestamp(wire.Timestamp)

	switch kind {
	case RecordTypeMortality:
		flockID, date, err := decodeFlockDate(wire)
		if err != nil {
			return nil, err
		}
		if wire.Deaths == nil {
			return nil, fmt.Errorf("%w: deaths is required", ErrInvalidPayload)
		}
		if *wire.Deaths <= 0 {
			return nil, fmt.Errorf("%w: deaths must be greater than 0, got %d", ErrInvalidPayload, *wire.Deaths)
		}
		return &MortalityConflictPayload{
			FlockID:   flockID,
			Date:      date,
			Deaths:    *wire.Deaths,
			CauseName: wire.CauseName,
			ClientID:  wire.ClientID,
			Timestamp: timestamp,
		}, nil
	case RecordTypeWeight:
		flockID, date, err := decodeFlockDate(wire)
		if err != nil {
			return nil, err
		}
		if wire.AverageWeight == nil {
			return nil, fmt.Errorf("%w: average_weight is required", ErrInvalidPayload)
		}
		if !wire.AverageWeight.IsPositive() {
			return nil, fmt.Errorf("%w: average_weight must be greater than 0", ErrInvalidPayload)
		}
		return &WeightConflictPayload{
			FlockID:       flockID,
			Date:          date,
			AverageWeight: *wire.AverageWeight,
			ClientID:      wire.ClientID,
			Timestamp:     timestamp,
		}, nil
	default:
		if kind == "" {
			return nil, fmt.Errorf("%w: record type is required", ErrInvalidPayload)
		}
		return &GenericConflictPayload{Type: kind, Data: data, Timestamp: timestamp}, nil
	}
}

func decodeFlockDate(wire conflictPayloadWire) (uuid.UUID, time.Time, error) {
	flockID, err := uuid.Parse(wire.FlockID)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: flock_id must be a UUID", ErrInvalidPayload)
	}
	date, err := ParseDate(wire.Date)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidPayload)
	}
	return flockID, date, nil
}

var clientTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseClientTimestamp parses an ISO-8601 timestamp; unparseable input yields nil.
// Timestamps without a zone are taken as UTC.
func ParseClientTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range clientTimestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}
