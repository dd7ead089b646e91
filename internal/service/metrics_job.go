package service

import (
	"context"
	"log/slog"
	"time"
)

const (
	metricsJobLockKey = "farm:lock:metrics-recompute"
	// DefaultMetricsRecomputeInterval is used when the job is built with a zero interval
	DefaultMetricsRecomputeInterval = 15 * time.Minute
)

// MetricsRecomputeJob periodically refreshes consumption metrics of every item.
// Only the replica holding the lock recomputes on a given tick.
type MetricsRecomputeJob struct {
	updater  StockMetricsUpdater
	locker   DistributedLocker
	interval time.Duration
	logger   *slog.Logger
}

// NewMetricsRecomputeJob creates the job; a nil locker runs every tick unconditionally
func NewMetricsRecomputeJob(updater StockMetricsUpdater, locker DistributedLocker, interval time.Duration, logger *slog.Logger) *MetricsRecomputeJob {
	if interval <= 0 {
		interval = DefaultMetricsRecomputeInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsRecomputeJob{
		updater:  updater,
		locker:   locker,
		interval: interval,
		logger:   logger,
	}
}

// RunOnce performs one tick. ran is false when another replica held the lock.
func (j *MetricsRecomputeJob) RunOnce(ctx context.Context) (updated int, ran bool, err error) {
	if j.locker != nil {
		release, obtained, err := j.locker.TryLock(ctx, metricsJobLockKey, j.interval)
		if err != nil {
			return 0, false, err
		}
		if !obtained {
			j.logger.Debug("Metrics recompute skipped, lock held elsewhere")
			return 0, false, nil
		}
		defer func() {
			if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
				j.logger.Warn("Failed to release metrics recompute lock", "error", releaseErr)
			}
		}()
	}

	start := time.Now()
	updated, err = j.updater.RecomputeAll(ctx)
	if err != nil {
		return updated, true, err
	}

	j.logger.Info("Consumption metrics recomputed",
		"items", updated,
		"duration", time.Since(start))
	return updated, true, nil
}

// Run ticks until ctx is cancelled
func (j *MetricsRecomputeJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Metrics recompute job started", "interval", j.interval)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Metrics recompute job stopped")
			return
		case <-ticker.C:
			if _, _, err := j.RunOnce(ctx); err != nil {
				j.logger.Error("Metrics recompute failed", "error", err)
			}
		}
	}
}
