package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/avicola-track/farm-service/internal/models"
)

const (
	// DefaultStatsDays is the default trailing window of mortality stats
	DefaultStatsDays = 7
	// MaxStatsDays bounds the stats window
	MaxStatsDays = 365
)

// mortalityService implements MortalityService interface
type mortalityService struct {
	deps         *ServiceDependencies
	applier      MortalityApplier
	hooks        []MortalityHook
	cacheManager CacheManager
}

// NewMortalityService creates a new mortality service; hooks run after each commit
func NewMortalityService(deps *ServiceDependencies, applier MortalityApplier, hooks ...MortalityHook) MortalityService {
	return &mortalityService{
		deps:         deps,
		applier:      applier,
		hooks:        hooks,
		cacheManager: NewCacheManager(deps),
	}
}

// RegisterMortality applies one mortality submission in its own transaction
func (s *mortalityService) RegisterMortality(ctx context.Context, cmd *MortalityCommand) (*models.MortalityApplication, error) {
	txm := s.deps.Repositories.Transactions
	tx, err := txm.BeginTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	committed := false
	defer func() {
		if !committed {
			_ = txm.RollbackTransaction(ctx, tx)
		}
	}()

	app, err := s.applier.ApplyInTx(ctx, tx, cmd)
	if err != nil {
		return nil, err
	}

	if err := txm.CommitTransaction(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	committed = true

	s.afterCommit(ctx, app)

	s.deps.logger().Info("Mortality registered",
		"flock_id", app.Flock.ID,
		"record_id", app.Record.ID,
		"deaths", app.Increment,
		"merged", app.Merged,
		"flock_current_quantity", app.Flock.CurrentQuantity)

	return app, nil
}

// SyncMortality applies offline submissions one by one. A failing item does not
// abort its siblings; results are returned in input order.
func (s *mortalityService) SyncMortality(ctx context.Context, items []models.MortalitySyncItem, actor *uuid.UUID) (*models.BulkSyncResponse, error) {
	response := &models.BulkSyncResponse{Results: make([]models.SyncItemResult, 0, len(items))}

	for i := range items {
		item := items[i]
		result := s.syncItem(ctx, &item, actor)
		if result.Status == models.SyncStatusSuccess {
			response.Succeeded++
		} else {
			response.Failed++
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordSyncItem(result.Status)
		}
		response.Results = append(response.Results, result)
	}

	s.deps.logger().Info("Mortality sync processed",
		"items", len(items),
		"succeeded", response.Succeeded,
		"failed", response.Failed)

	return response, nil
}

func (s *mortalityService) syncItem(ctx context.Context, item *models.MortalitySyncItem, actor *uuid.UUID) models.SyncItemResult {
	result := models.SyncItemResult{ClientID: item.ClientID, Status: models.SyncStatusError}

	if err := models.ValidateMortalitySyncItem(item); err != nil {
		result.Error = err.Error()
		return result
	}
	date, _ := models.ParseDate(item.Date)

	clientID := item.ClientID
	app, err := s.RegisterMortality(ctx, &MortalityCommand{
		FlockID:    item.FlockID,
		Date:       date,
		Deaths:     item.Deaths,
		CauseName:  item.CauseName,
		Notes:      item.Notes,
		ClientID:   &clientID,
		RecordedBy: actor,
	})
	if err != nil {
		s.deps.logger().Warn("Mortality sync item rejected",
			"client_id", item.ClientID,
			"flock_id", item.FlockID,
			"error", err)
		result.Error = err.Error()
		return result
	}

	result.Status = models.SyncStatusSuccess
	result.Action = MortalityAction(app)
	result.ServerID = &app.Record.ID
	return result
}

// CalculateMortalityStats summarises the trailing days of a flock, today included
func (s *mortalityService) CalculateMortalityStats(ctx context.Context, flockID uuid.UUID, days int) (*models.MortalityStats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	if days > MaxStatsDays {
		days = MaxStatsDays
	}

	cacheKey := fmt.Sprintf(flockStatsCacheKey, flockID.String(), days)
	var cached models.MortalityStats
	if cacheGet(ctx, s.deps, "mortality_stats", cacheKey, &cached) && cached.FlockID == flockID {
		return &cached, nil
	}

	flock, err := s.deps.Repositories.Flocks.GetFlock(ctx, flockID)
	if err != nil {
		return nil, err
	}

	end := models.DateOnly(s.deps.now())
	start := end.AddDate(0, 0, -(days - 1))

	records, err := s.deps.Repositories.Reads.ListMortalityRecords(ctx, flockID, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list mortality records")
	}

	stats := BuildMortalityStats(flock, records, start, days)
	cacheSet(ctx, s.deps, cacheKey, stats)
	return stats, nil
}

// BuildMortalityStats aggregates records of the window starting at start
func BuildMortalityStats(flock *models.Flock, records []*models.MortalityRecord, start time.Time, days int) *models.MortalityStats {
	byDay := make(map[string]int, len(records))
	total := 0
	var worst *models.MortalityRecord
	for _, record := range records {
		byDay[record.RecordDate.Format("2006-01-02")] += record.Deaths
		total += record.Deaths
		if worst == nil || record.Deaths > worst.Deaths {
			worst = record
		}
	}

	rate := func(deaths int) float64 {
		if flock.InitialQuantity == 0 {
			return 0
		}
		return float64(deaths) / float64(flock.InitialQuantity) * 100
	}

	series := make([]models.MortalityDay, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, models.MortalityDay{
			Date:          day,
			Deaths:        byDay[day],
			MortalityRate: rate(byDay[day]),
		})
	}

	end := start.AddDate(0, 0, days-1)
	return &models.MortalityStats{
		FlockID:       flock.ID,
		TotalDeaths:   total,
		MortalityRate: rate(total),
		DailyAverage:  float64(total) / float64(days),
		WorstDay:      worst,
		Period:        fmt.Sprintf("%s - %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		Series:        series,
	}
}

// afterCommit runs everything that must not roll back the application
func (s *mortalityService) afterCommit(ctx context.Context, app *models.MortalityApplication) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordMortalityApplied(MortalityAction(app), app.Increment)
	}
	if err := s.cacheManager.InvalidateFlockCache(ctx, app.Flock.ID); err != nil {
		s.deps.logger().Warn("Failed to invalidate flock cache", "flock_id", app.Flock.ID, "error", err)
	}
	for _, hook := range s.hooks {
		hook.AfterMortality(ctx, app)
	}
}
