package metrics

import (
	"time"
)

// ServiceMetrics implements the service.MetricsInterface for the service layer.
type ServiceMetrics struct {
	metrics *Metrics
}

// NewServiceMetrics creates a new ServiceMetrics instance.
// A nil Metrics turns every call into a no-op.
func NewServiceMetrics(m *Metrics) *ServiceMetrics {
	return &ServiceMetrics{
		metrics: m,
	}
}

// RecordInventoryOperation records a ledger operation (add_stock, consume, ...).
func (sm *ServiceMetrics) RecordInventoryOperation(operationType, status string) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.InventoryOperationsTotal.WithLabelValues(operationType, status).Inc()
}

// RecordCacheHit records a cache hit.
func (sm *ServiceMetrics) RecordCacheHit(cacheType string) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (sm *ServiceMetrics) RecordCacheMiss(cacheType string) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordTransactionMetrics records transaction-related metrics.
func (sm *ServiceMetrics) RecordTransactionMetrics(operationType string, operationCount int, duration time.Duration) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.TransactionOperations.WithLabelValues(operationType).Observe(float64(operationCount))
	sm.metrics.TransactionDuration.WithLabelValues(operationType).Observe(duration.Seconds())
}

// RecordMortalityApplied counts a mortality registration and the deaths it applied.
func (sm *ServiceMetrics) RecordMortalityApplied(action string, deaths int) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.MortalityApplications.WithLabelValues(action).Inc()
	if deaths > 0 {
		sm.metrics.MortalityDeaths.WithLabelValues(action).Add(float64(deaths))
	}
}

// RecordConflictEvent records a reported or resolved sync conflict.
func (sm *ServiceMetrics) RecordConflictEvent(event, conflictType, priority string) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.ConflictEvents.WithLabelValues(event, conflictType, priority).Inc()
}

// RecordNotification records a notification delivery attempt.
func (sm *ServiceMetrics) RecordNotification(sink, status string) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.Notifications.WithLabelValues(sink, status).Inc()
}

// RecordSyncItem records the outcome of one offline sync item.
func (sm *ServiceMetrics) RecordSyncItem(status string) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.SyncItems.WithLabelValues(status).Inc()
}

// RecordDatabaseQuery forwards repository timings; it satisfies storage.QueryObserver.
func (sm *ServiceMetrics) RecordDatabaseQuery(operation, status string, duration time.Duration) {
	if sm.metrics == nil {
		return
	}
	sm.metrics.RecordDatabaseQuery(operation, status, duration)
}
