package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) AddStock(ctx context.Context, req *service.AddStockInput) (*models.StockBatch, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockBatch), args.Error(1)
}

func (m *MockLedger) ConsumeFIFO(ctx context.Context, req *service.ConsumeInput) (*service.ConsumeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConsumeResult), args.Error(1)
}

func (m *MockLedger) GetItemSummary(ctx context.Context, itemID uuid.UUID) (*models.InventoryItemSummary, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItemSummary), args.Error(1)
}

func (m *MockLedger) GetLedger(ctx context.Context, itemID uuid.UUID) (*models.LedgerView, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerView), args.Error(1)
}

func (m *MockLedger) GetConsumptionHistory(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]*models.ConsumptionRecord, error) {
	args := m.Called(ctx, itemID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ConsumptionRecord), args.Error(1)
}

type MockStockMetrics struct {
	mock.Mock
}

func (m *MockStockMetrics) UpdateConsumptionMetrics(ctx context.Context, itemID uuid.UUID) (*models.InventoryItemSummary, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItemSummary), args.Error(1)
}

func (m *MockStockMetrics) RecomputeAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockMortality struct {
	mock.Mock
}

func (m *MockMortality) RegisterMortality(ctx context.Context, cmd *service.MortalityCommand) (*models.MortalityApplication, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MortalityApplication), args.Error(1)
}

func (m *MockMortality) SyncMortality(ctx context.Context, items []models.MortalitySyncItem, actor *uuid.UUID) (*models.BulkSyncResponse, error) {
	args := m.Called(ctx, items, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkSyncResponse), args.Error(1)
}

func (m *MockMortality) CalculateMortalityStats(ctx context.Context, flockID uuid.UUID, days int) (*models.MortalityStats, error) {
	args := m.Called(ctx, flockID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MortalityStats), args.Error(1)
}

type MockConflicts struct {
	mock.Mock
}

func (m *MockConflicts) ReportConflict(ctx context.Context, req *models.ReportConflictRequest, reporter *uuid.UUID) (*models.SyncConflict, error) {
	args := m.Called(ctx, req, reporter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncConflict), args.Error(1)
}

func (m *MockConflicts) ResolveConflict(ctx context.Context, req *service.ResolveInput) (*models.SyncConflict, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncConflict), args.Error(1)
}

func (m *MockConflicts) GetConflict(ctx context.Context, conflictID uuid.UUID) (*models.SyncConflict, error) {
	args := m.Called(ctx, conflictID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncConflict), args.Error(1)
}

func (m *MockConflicts) ListConflicts(ctx context.Context, filter *models.ConflictFilter) ([]*models.SyncConflict, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SyncConflict), args.Error(1)
}

type MockCacheManager struct {
	mock.Mock
}

func (m *MockCacheManager) InvalidateItemCache(ctx context.Context, itemID uuid.UUID) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockCacheManager) InvalidateFlockCache(ctx context.Context, flockID uuid.UUID) error {
	return m.Called(ctx, flockID).Error(0)
}

func (m *MockCacheManager) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
