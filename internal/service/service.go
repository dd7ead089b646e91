package service

// Service groups the farm operations exposed to handlers
type Service struct {
	Ledger       InventoryLedger
	StockMetrics StockMetricsUpdater
	Mortality    MortalityService
	Conflicts    ConflictService
	Notifier     Notifier
	Cache        CacheManager
}

// NewService wires every farm service over one set of dependencies. Direct
// registration, bulk sync and conflict resolution share a single mortality applier
// and the same post-commit alarm hook.
func NewService(deps *ServiceDependencies) *Service {
	notifier := NewNotifier(deps)
	applier := NewMortalityApplier(deps)
	alarmHook := NewMortalityAlarmHook(deps, notifier)

	return &Service{
		Ledger:       NewInventoryLedger(deps),
		StockMetrics: NewStockMetricsUpdater(deps),
		Mortality:    NewMortalityService(deps, applier, alarmHook),
		Conflicts:    NewConflictService(deps, applier, notifier, alarmHook),
		Notifier:     notifier,
		Cache:        NewCacheManager(deps),
	}
}
