package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avicola-track/farm-service/internal/models"
)

// InventoryLedger defines the FIFO stock operations of inventory items
type InventoryLedger interface {
	AddStock(ctx context.Context, req *AddStockInput) (*models.StockBatch, error)
	ConsumeFIFO(ctx context.Context, req *ConsumeInput) (*ConsumeResult, error)

	// Read side
	GetItemSummary(ctx context.Context, itemID uuid.UUID) (*models.InventoryItemSummary, error)
	GetLedger(ctx context.Context, itemID uuid.UUID) (*models.LedgerView, error)
	GetConsumptionHistory(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]*models.ConsumptionRecord, error)
}

// StockMetricsUpdater recomputes consumption averages and stock status
type StockMetricsUpdater interface {
	UpdateConsumptionMetrics(ctx context.Context, itemID uuid.UUID) (*models.InventoryItemSummary, error)
	RecomputeAll(ctx context.Context) (int, error)
}

// MortalityApplier applies a mortality delta to a flock inside a caller-owned transaction.
// Direct registration, bulk sync and conflict resolution all go through it.
type MortalityApplier interface {
	ApplyInTx(ctx context.Context, tx interface{}, cmd *MortalityCommand) (*models.MortalityApplication, error)
}

// MortalityService defines flock mortality operations
type MortalityService interface {
	RegisterMortality(ctx context.Context, cmd *MortalityCommand) (*models.MortalityApplication, error)
	SyncMortality(ctx context.Context, items []models.MortalitySyncItem, actor *uuid.UUID) (*models.BulkSyncResponse, error)
	CalculateMortalityStats(ctx context.Context, flockID uuid.UUID, days int) (*models.MortalityStats, error)
}

// ConflictService defines the offline-sync conflict lifecycle
type ConflictService interface {
	ReportConflict(ctx context.Context, req *models.ReportConflictRequest, reporter *uuid.UUID) (*models.SyncConflict, error)
	ResolveConflict(ctx context.Context, req *ResolveInput) (*models.SyncConflict, error)
	GetConflict(ctx context.Context, conflictID uuid.UUID) (*models.SyncConflict, error)
	ListConflicts(ctx context.Context, filter *models.ConflictFilter) ([]*models.SyncConflict, error)
}

// Notifier fans an event out to users through the configured sink
type Notifier interface {
	Notify(ctx context.Context, event *models.NotificationEvent, recipients []uuid.UUID) []models.DeliveryResult
}

// NotificationSink delivers one event to one recipient. Delivery is best-effort:
// failures are reported in the result, never returned as errors.
type NotificationSink interface {
	Name() string
	Send(ctx context.Context, event *models.NotificationEvent, recipient *models.User) models.DeliveryResult
}

// MortalityHook runs after a mortality application has committed
type MortalityHook interface {
	AfterMortality(ctx context.Context, app *models.MortalityApplication)
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// Request/Response types for service operations

// AddStockInput registers a new batch for an item
type AddStockInput struct {
	ItemID     uuid.UUID
	Quantity   decimal.Decimal
	EntryDate  *time.Time // defaults to today
	Supplier   *string
	LotNumber  *string
	ExpiryDate *time.Time
}

// ConsumeInput draws stock from an item; FlockID enables the consumption record
type ConsumeInput struct {
	ItemID     uuid.UUID
	Quantity   decimal.Decimal
	FlockID    *uuid.UUID
	RecordedBy *uuid.UUID
}

// ConsumeResult is the outcome of a FIFO consumption
type ConsumeResult struct {
	Item   *models.InventoryItem
	Trace  models.FIFOTrace
	Record *models.ConsumptionRecord
}

// MortalityCommand applies deaths to a flock for one day
type MortalityCommand struct {
	FlockID    uuid.UUID
	Date       time.Time
	Deaths     int
	CauseName  string
	Notes      string
	ClientID   *string
	RecordedBy *uuid.UUID
}

// ResolveInput resolves a pending conflict
type ResolveInput struct {
	ConflictID     uuid.UUID
	ResolutionType models.ResolutionType
	ResolutionData models.JSONMap
	Notes          string
	Actor          *uuid.UUID
}

// RepositoryInterfaces defines all repository interfaces needed by services
type RepositoryInterfaces struct {
	Transactions TransactionManager
	Inventory    InventoryRepositoryInterface
	Flocks       FlockRepositoryInterface
	Conflicts    ConflictRepositoryInterface
	Directory    DirectoryRepositoryInterface
	Alarms       AlarmRepositoryInterface
	Reads        ReadRepositoryInterface
}

// TransactionManager opens transactions shared by all write repositories
type TransactionManager interface {
	BeginTransaction(ctx context.Context) (interface{}, error)
	CommitTransaction(ctx context.Context, tx interface{}) error
	RollbackTransaction(ctx context.Context, tx interface{}) error
}

// InventoryRepositoryInterface defines the inventory write repository
type InventoryRepositoryInterface interface {
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error)
	ListItemIDs(ctx context.Context) ([]uuid.UUID, error)

	// Row-locked access inside a transaction
	LockItem(ctx context.Context, tx interface{}, itemID uuid.UUID) (*models.InventoryItem, error)
	GetAvailableBatches(ctx context.Context, tx interface{}, itemID uuid.UUID) ([]*models.StockBatch, error)
	CreateBatch(ctx context.Context, tx interface{}, batch *models.StockBatch) error
	UpdateBatchQuantities(ctx context.Context, tx interface{}, batches []*models.StockBatch) error
	UpdateItemStock(ctx context.Context, tx interface{}, item *models.InventoryItem) error
	ConsumptionRecordExists(ctx context.Context, tx interface{}, flockID, itemID uuid.UUID, date time.Time) (bool, error)
	CreateConsumptionRecord(ctx context.Context, tx interface{}, record *models.ConsumptionRecord) error

	// Consumption metrics
	SumConsumption(ctx context.Context, itemID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	LatestConsumptionDate(ctx context.Context, itemID uuid.UUID) (*time.Time, error)
	UpdateConsumptionMetrics(ctx context.Context, itemID uuid.UUID, avg decimal.Decimal, lastConsumption *time.Time) error
}

// FlockRepositoryInterface defines the flock and mortality write repository
type FlockRepositoryInterface interface {
	GetFlock(ctx context.Context, flockID uuid.UUID) (*models.Flock, error)
	LockFlock(ctx context.Context, tx interface{}, flockID uuid.UUID) (*models.Flock, error)
	UpdateFlockQuantity(ctx context.Context, tx interface{}, flockID uuid.UUID, currentQuantity int) error

	// GetMortalityRecordForDate returns nil when no record exists; a non-nil tx locks the row
	GetMortalityRecordForDate(ctx context.Context, tx interface{}, flockID uuid.UUID, date time.Time) (*models.MortalityRecord, error)
	CreateMortalityRecord(ctx context.Context, tx interface{}, record *models.MortalityRecord) error
	UpdateMortalityRecord(ctx context.Context, tx interface{}, record *models.MortalityRecord) error
	GetOrCreateCause(ctx context.Context, tx interface{}, name string) (*models.MortalityCause, error)

	// GetWeightRecordForDate returns nil when no record exists
	GetWeightRecordForDate(ctx context.Context, flockID uuid.UUID, date time.Time) (*models.WeightRecord, error)
}

// ConflictRepositoryInterface defines the sync conflict write repository
type ConflictRepositoryInterface interface {
	CreateConflict(ctx context.Context, conflict *models.SyncConflict) error
	GetConflict(ctx context.Context, conflictID uuid.UUID) (*models.SyncConflict, error)
	LockConflict(ctx context.Context, tx interface{}, conflictID uuid.UUID) (*models.SyncConflict, error)
	UpdateConflictResolution(ctx context.Context, tx interface{}, conflict *models.SyncConflict) error
}

// DirectoryRepositoryInterface resolves farms and users; missing rows return nil
type DirectoryRepositoryInterface interface {
	GetFarm(ctx context.Context, farmID uuid.UUID) (*models.Farm, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AlarmRepositoryInterface defines alarm configuration and alarm storage
type AlarmRepositoryInterface interface {
	// GetActiveConfiguration returns nil when the farm has no active configuration
	GetActiveConfiguration(ctx context.Context, farmID uuid.UUID, alarmType string) (*models.AlarmConfiguration, error)
	CreateAlarm(ctx context.Context, alarm *models.Alarm) error
}

// ReadRepositoryInterface defines read-only listing queries
type ReadRepositoryInterface interface {
	ListBatches(ctx context.Context, itemID uuid.UUID) ([]*models.StockBatch, error)
	ListConsumptionRecords(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]*models.ConsumptionRecord, error)
	ListMortalityRecords(ctx context.Context, flockID uuid.UUID, from, to time.Time) ([]*models.MortalityRecord, error)
	ListConflicts(ctx context.Context, filter *models.ConflictFilter) ([]*models.SyncConflict, error)
}

// CacheInterface defines the caching interface
type CacheInterface interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// MetricsInterface defines the metrics the service layer records
type MetricsInterface interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
	RecordInventoryOperation(operationType, status string)
	RecordTransactionMetrics(operationType string, operationCount int, duration time.Duration)
	RecordMortalityApplied(action string, deaths int)
	RecordConflictEvent(event, conflictType, priority string)
	RecordNotification(sink, status string)
	RecordSyncItem(status string)
}

// ServiceDependencies aggregates all dependencies needed by services
type ServiceDependencies struct {
	Repositories        *RepositoryInterfaces
	Cache               CacheInterface
	Metrics             MetricsInterface
	Sink                NotificationSink
	Clock               Clock
	Logger              *slog.Logger
	CacheTTL            time.Duration
	NotificationTimeout time.Duration
}

func (d *ServiceDependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *ServiceDependencies) now() time.Time {
	if d.Clock != nil {
		return d.Clock.Now()
	}
	return time.Now().UTC()
}
