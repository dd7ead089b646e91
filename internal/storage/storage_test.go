package storage

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// Verify storages implement the service repository interfaces
var (
	_ service.TransactionManager           = (*TxManager)(nil)
	_ service.InventoryRepositoryInterface = (*InventoryStorage)(nil)
	_ service.FlockRepositoryInterface     = (*FlockStorage)(nil)
	_ service.ConflictRepositoryInterface  = (*ConflictStorage)(nil)
	_ service.DirectoryRepositoryInterface = (*DirectoryStorage)(nil)
	_ service.AlarmRepositoryInterface     = (*DirectoryStorage)(nil)
)

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) RecordDatabaseQuery(operation, status string, duration time.Duration) {
	m.Called(operation, status, duration)
}

func TestAsTx(t *testing.T) {
	tests := []struct {
		name string
		tx   interface{}
	}{
		{"nil", nil},
		{"wrong type", "not a transaction"},
		{"struct", struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := asTx(tt.tx)
			assert.Nil(t, tx)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestOn_UsesPoolWithoutTransaction(t *testing.T) {
	db, err := on(nil, nil)
	require.NoError(t, err)
	assert.IsType(t, (*pgxpool.Pool)(nil), db)

	_, err = on(nil, 42)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestLockTimeoutStatement(t *testing.T) {
	assert.Equal(t, "", lockTimeoutStatement(0))
	assert.Equal(t, "", lockTimeoutStatement(-time.Second))
	assert.Equal(t, "SET LOCAL lock_timeout = '2500ms'", lockTimeoutStatement(2500*time.Millisecond))
	assert.Equal(t, "SET LOCAL lock_timeout = '5000ms'", lockTimeoutStatement(5*time.Second))
}

func TestTxManager_RejectsForeignTransactions(t *testing.T) {
	ctx := context.Background()
	manager := NewTxManager(nil, time.Second, slog.Default())

	assert.ErrorIs(t, manager.CommitTransaction(ctx, "tx"), ErrInvalidTransaction)
	assert.ErrorIs(t, manager.RollbackTransaction(ctx, nil), ErrInvalidTransaction)
}

func TestInventoryStorage_RequiresTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewInventoryStorage(nil, slog.Default(), nil)
	itemID := uuid.New()

	_, err := s.LockItem(ctx, nil, itemID)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	_, err = s.GetAvailableBatches(ctx, "tx", itemID)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.CreateBatch(ctx, nil, &models.StockBatch{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.UpdateItemStock(ctx, nil, &models.InventoryItem{ID: itemID})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	_, err = s.ConsumptionRecordExists(ctx, nil, uuid.New(), itemID, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.CreateConsumptionRecord(ctx, nil, &models.ConsumptionRecord{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestInventoryStorage_UpdateBatchQuantitiesEmpty(t *testing.T) {
	s := NewInventoryStorage(nil, slog.Default(), nil)

	// Nothing to write never touches the transaction
	assert.NoError(t, s.UpdateBatchQuantities(context.Background(), nil, nil))
	assert.ErrorIs(t, s.UpdateBatchQuantities(context.Background(), nil, []*models.StockBatch{{ID: uuid.New()}}), ErrInvalidTransaction)
}

func TestInventoryStorage_Observe(t *testing.T) {
	t.Run("Success and error statuses", func(t *testing.T) {
		observer := new(MockObserver)
		s := &InventoryStorage{observer: observer}

		observer.On("RecordDatabaseQuery", "get_item", "success", mock.AnythingOfType("time.Duration")).Return().Once()
		observer.On("RecordDatabaseQuery", "get_item", "error", mock.AnythingOfType("time.Duration")).Return().Once()

		s.observe("get_item", time.Now(), nil)
		s.observe("get_item", time.Now(), errors.New("boom"))

		observer.AssertExpectations(t)
	})

	t.Run("No observer configured", func(t *testing.T) {
		s := &InventoryStorage{}
		assert.NotPanics(t, func() { s.observe("get_item", time.Now(), nil) })
	})
}

func TestFlockStorage_RequiresTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewFlockStorage(nil, slog.Default())
	flockID := uuid.New()

	_, err := s.LockFlock(ctx, nil, flockID)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.UpdateFlockQuantity(ctx, nil, flockID, 10)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	_, err = s.GetMortalityRecordForDate(ctx, "tx", flockID, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.CreateMortalityRecord(ctx, nil, &models.MortalityRecord{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.UpdateMortalityRecord(ctx, nil, &models.MortalityRecord{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	_, err = s.GetOrCreateCause(ctx, nil, "Heat stress")
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestConflictStorage_RequiresTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewConflictStorage(nil, slog.Default())

	_, err := s.LockConflict(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = s.UpdateConflictResolution(ctx, struct{}{}, &models.SyncConflict{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}
