package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification event kinds
const (
	EventConflictCreated  = "sync_conflict_created"
	EventConflictResolved = "sync_conflict_resolved"
	EventMortalityAlarm   = "mortality_alarm"
)

// Delivery statuses reported by sinks
const (
	DeliverySent    = "sent"
	DeliverySkipped = "skipped"
	DeliveryError   = "error"
)

// NotificationEvent is what a sink delivers to a recipient
type NotificationEvent struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Priority  string     `json:"priority,omitempty"`
	FarmID    *uuid.UUID `json:"farm_id,omitempty"`
	SubjectID *uuid.UUID `json:"subject_id,omitempty"`
	Payload   JSONMap    `json:"payload,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DeliveryResult is the best-effort outcome of one send
type DeliveryResult struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// AlarmConfiguration holds per-farm alarm thresholds
type AlarmConfiguration struct {
	ID                uuid.UUID `json:"id" db:"id"`
	FarmID            uuid.UUID `json:"farm_id" db:"farm_id"`
	AlarmType         string    `json:"alarm_type" db:"alarm_type"`
	ThresholdValue    float64   `json:"threshold_value" db:"threshold_value"`
	CriticalThreshold *float64  `json:"critical_threshold,omitempty" db:"critical_threshold"`
	IsActive          bool      `json:"is_active" db:"is_active"`
}

// Alarm is a stored alert raised by a post-commit hook
type Alarm struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FarmID      uuid.UUID  `json:"farm_id" db:"farm_id"`
	FlockID     *uuid.UUID `json:"flock_id,omitempty" db:"flock_id"`
	AlarmType   string     `json:"alarm_type" db:"alarm_type"`
	Description string     `json:"description" db:"description"`
	Priority    string     `json:"priority" db:"priority"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

const AlarmTypeMortality = "MORTALITY"

// NotificationLogEntry is one stored delivery of the db sink
type NotificationLogEntry struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	RecipientID uuid.UUID  `json:"recipient_id" db:"recipient_id"`
	EventKind   string     `json:"event_kind" db:"event_kind"`
	Title       string     `json:"title" db:"title"`
	Body        string     `json:"body" db:"body"`
	Priority    string     `json:"priority" db:"priority"`
	SubjectID   *uuid.UUID `json:"subject_id,omitempty" db:"subject_id"`
	Payload     JSONMap    `json:"payload" db:"payload"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
