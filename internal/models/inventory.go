package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryUnit is the measuring unit of an inventory item
type InventoryUnit string

const (
	UnitKilogram InventoryUnit = "KG"
	UnitTon      InventoryUnit = "TON"
	UnitBag      InventoryUnit = "BAG"
	UnitPound    InventoryUnit = "LB"
)

// StockStatus classifies how long the current stock will last
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusUnknown    StockStatus = "UNKNOWN"
	StockStatusCritical   StockStatus = "CRITICAL"
	StockStatusLow        StockStatus = "LOW"
	StockStatusNormal     StockStatus = "NORMAL"
)

const (
	DefaultAlertThresholdDays    = 5
	DefaultCriticalThresholdDays = 2
)

// InventoryItem is the aggregate root for feed stock of a farm or shed
type InventoryItem struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	FarmID                uuid.UUID       `json:"farm_id" db:"farm_id"`
	ShedID                *uuid.UUID      `json:"shed_id,omitempty" db:"shed_id"`
	Name                  string          `json:"name" db:"name"`
	Description           string          `json:"description" db:"description"`
	Unit                  InventoryUnit   `json:"unit" db:"unit"`
	CurrentStock          decimal.Decimal `json:"current_stock" db:"current_stock"`
	MinimumStock          decimal.Decimal `json:"minimum_stock" db:"minimum_stock"`
	DailyAvgConsumption   decimal.Decimal `json:"daily_avg_consumption" db:"daily_avg_consumption"`
	AlertThresholdDays    int             `json:"alert_threshold_days" db:"alert_threshold_days"`
	CriticalThresholdDays int             `json:"critical_threshold_days" db:"critical_threshold_days"`
	LastRestockDate       *time.Time      `json:"last_restock_date,omitempty" db:"last_restock_date"`
	LastConsumptionDate   *time.Time      `json:"last_consumption_date,omitempty" db:"last_consumption_date"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// StockBatch is one FIFO lot of an inventory item. Batches are never deleted.
type StockBatch struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Seq             int64           `json:"-" db:"seq"`
	InventoryItemID uuid.UUID       `json:"inventory_item_id" db:"inventory_item_id"`
	EntryDate       time.Time       `json:"entry_date" db:"entry_date"`
	InitialQuantity decimal.Decimal `json:"initial_quantity" db:"initial_quantity"`
	CurrentQuantity decimal.Decimal `json:"current_quantity" db:"current_quantity"`
	Supplier        *string         `json:"supplier,omitempty" db:"supplier"`
	LotNumber       *string         `json:"lot_number,omitempty" db:"lot_number"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// IsDepleted reports whether nothing is left in the batch
func (b *StockBatch) IsDepleted() bool {
	return !b.CurrentQuantity.IsPositive()
}

// ConsumptionRate returns the consumed share of the batch as a percentage
func (b *StockBatch) ConsumptionRate() decimal.Decimal {
	if b.InitialQuantity.IsZero() {
		return decimal.Zero
	}
	consumed := b.InitialQuantity.Sub(b.CurrentQuantity)
	return consumed.Div(b.InitialQuantity).Mul(decimal.NewFromInt(100))
}

// FIFOTraceEntry describes how much was drawn from one batch
type FIFOTraceEntry struct {
	BatchID             uuid.UUID       `json:"batch_id"`
	EntryDate           time.Time       `json:"entry_date"`
	QuantityConsumed    decimal.Decimal `json:"quantity_consumed"`
	BatchRemainingAfter decimal.Decimal `json:"batch_remaining_after"`
}

// FIFOTrace is the ordered list of batch draws of a single consumption
type FIFOTrace []FIFOTraceEntry

// Total returns the sum of all draws
func (t FIFOTrace) Total() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range t {
		total = total.Add(entry.QuantityConsumed)
	}
	return total
}

// Value implements driver.Valuer for jsonb columns
func (t FIFOTrace) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for jsonb columns
func (t *FIFOTrace) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = FIFOTrace{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("cannot scan %T into FIFOTrace", src)
	}
}

// ConsumptionRecord is the immutable audit entry of a flock consuming an item on a day
type ConsumptionRecord struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	FlockID          uuid.UUID       `json:"flock_id" db:"flock_id"`
	InventoryItemID  uuid.UUID       `json:"inventory_item_id" db:"inventory_item_id"`
	RecordDate       time.Time       `json:"record_date" db:"record_date"`
	QuantityConsumed decimal.Decimal `json:"quantity_consumed" db:"quantity_consumed"`
	FIFODetails      FIFOTrace       `json:"fifo_details" db:"fifo_details"`
	RecordedBy       *uuid.UUID      `json:"recorded_by,omitempty" db:"recorded_by"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// StockMetrics is the derived consumption view of an item
type StockMetrics struct {
	CurrentStock          decimal.Decimal  `json:"current_stock"`
	DailyAvgConsumption   decimal.Decimal  `json:"daily_avg_consumption"`
	DaysRemaining         *decimal.Decimal `json:"days_remaining,omitempty"`
	ProjectedStockoutDate *time.Time       `json:"projected_stockout_date,omitempty"`
	Status                StockStatus      `json:"status"`
}

// InventoryItemSummary is the cached read model of an item
type InventoryItemSummary struct {
	Item    *InventoryItem `json:"item"`
	Metrics *StockMetrics  `json:"metrics"`
}

// LedgerView lists all batches of an item and whether they add up to its stock
type LedgerView struct {
	Item       *InventoryItem  `json:"item"`
	Batches    []*StockBatch   `json:"batches"`
	BatchTotal decimal.Decimal `json:"batch_total"`
	Consistent bool            `json:"consistent"`
}
