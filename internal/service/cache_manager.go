package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// Cache key patterns for different types of data
	itemSummaryCacheKey   = "farm:item:%s:summary"
	itemCachePattern      = "farm:item:%s:*"
	flockStatsCacheKey    = "farm:flock:%s:stats:%d"
	flockCachePattern     = "farm:flock:%s:*"
	allFarmCachesPattern  = "farm:*"
)

// CacheManager defines the interface for cache management operations
type CacheManager interface {
	InvalidateItemCache(ctx context.Context, itemID uuid.UUID) error
	InvalidateFlockCache(ctx context.Context, flockID uuid.UUID) error
	ClearAll(ctx context.Context) error
}

// cacheManager implements CacheManager interface
type cacheManager struct {
	deps *ServiceDependencies
}

// NewCacheManager creates a new cache manager
func NewCacheManager(deps *ServiceDependencies) CacheManager {
	return &cacheManager{
		deps: deps,
	}
}

// InvalidateItemCache invalidates all cache entries of an inventory item
func (cm *cacheManager) InvalidateItemCache(ctx context.Context, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return errors.New("item ID cannot be nil")
	}
	if cm.deps.Cache == nil {
		return nil
	}

	pattern := fmt.Sprintf(itemCachePattern, itemID.String())
	if err := cm.deps.Cache.DeletePattern(ctx, pattern); err != nil {
		return errors.Wrapf(err, "failed to invalidate cache for item %s", itemID.String())
	}

	return nil
}

// InvalidateFlockCache invalidates cached mortality stats of a flock
func (cm *cacheManager) InvalidateFlockCache(ctx context.Context, flockID uuid.UUID) error {
	if flockID == uuid.Nil {
		return errors.New("flock ID cannot be nil")
	}
	if cm.deps.Cache == nil {
		return nil
	}

	pattern := fmt.Sprintf(flockCachePattern, flockID.String())
	if err := cm.deps.Cache.DeletePattern(ctx, pattern); err != nil {
		return errors.Wrapf(err, "failed to invalidate cache for flock %s", flockID.String())
	}

	return nil
}

// ClearAll clears every farm cache entry (admin operation)
func (cm *cacheManager) ClearAll(ctx context.Context) error {
	if cm.deps.Cache == nil {
		return nil
	}
	if err := cm.deps.Cache.DeletePattern(ctx, allFarmCachesPattern); err != nil {
		return errors.Wrap(err, "failed to clear farm caches")
	}
	return nil
}

// cacheGet reads a cached value and records hit/miss metrics
func cacheGet(ctx context.Context, deps *ServiceDependencies, cacheType, key string, value interface{}) bool {
	if deps.Cache == nil {
		return false
	}
	if err := deps.Cache.Get(ctx, key, value); err != nil {
		if deps.Metrics != nil {
			deps.Metrics.RecordCacheMiss(cacheType)
		}
		return false
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordCacheHit(cacheType)
	}
	return true
}

// cacheSet stores a value; failures are logged only
func cacheSet(ctx context.Context, deps *ServiceDependencies, key string, value interface{}) {
	if deps.Cache == nil || deps.CacheTTL <= 0 {
		return
	}
	if err := deps.Cache.Set(ctx, key, value, deps.CacheTTL); err != nil {
		deps.logger().Warn("Failed to write cache", "key", key, "error", err)
	}
}
