package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the farm service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database metrics
	DatabaseConnections   prometheus.Gauge
	DatabaseQueriesTotal  *prometheus.CounterVec
	DatabaseQueryDuration *prometheus.HistogramVec

	// Redis metrics
	RedisConnections     prometheus.Gauge
	RedisCommandsTotal   *prometheus.CounterVec
	RedisCommandDuration *prometheus.HistogramVec

	// Business metrics
	InventoryOperationsTotal *prometheus.CounterVec
	MortalityApplications    *prometheus.CounterVec
	MortalityDeaths          *prometheus.CounterVec
	ConflictEvents           *prometheus.CounterVec
	Notifications            *prometheus.CounterVec
	SyncItems                *prometheus.CounterVec
	CacheHits                *prometheus.CounterVec
	CacheMisses              *prometheus.CounterVec
	TransactionOperations    *prometheus.HistogramVec
	TransactionDuration      *prometheus.HistogramVec

	// Health metrics
	DependencyHealth *prometheus.GaugeVec
}

// New creates a new Metrics instance registered in the default registry
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farm_service_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "farm_service_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		DatabaseConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "farm_service_database_connections",
				Help: "Number of open database connections",
			},
		),
		DatabaseQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation", "status"},
		),
		DatabaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farm_service_database_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"operation"},
		),

		RedisConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "farm_service_redis_connections",
				Help: "Number of open Redis connections",
			},
		),
		RedisCommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_redis_commands_total",
				Help: "Total number of Redis commands",
			},
			[]string{"command", "status"},
		),
		RedisCommandDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farm_service_redis_command_duration_seconds",
				Help:    "Redis command duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
			[]string{"command"},
		),

		InventoryOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_inventory_operations_total",
				Help: "Total number of inventory ledger operations",
			},
			[]string{"operation", "status"},
		),
		MortalityApplications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_mortality_applications_total",
				Help: "Mortality registrations by outcome (created, merged, duplicate, rejected)",
			},
			[]string{"action"},
		),
		MortalityDeaths: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_mortality_deaths_total",
				Help: "Deaths applied to flock live counts",
			},
			[]string{"action"},
		),
		ConflictEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_sync_conflict_events_total",
				Help: "Sync conflicts reported and resolved",
			},
			[]string{"event", "type", "priority"},
		),
		Notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_notifications_total",
				Help: "Notifications emitted per sink",
			},
			[]string{"sink", "status"},
		),
		SyncItems: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_sync_items_total",
				Help: "Offline sync items processed",
			},
			[]string{"status"},
		),
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farm_service_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
		TransactionOperations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farm_service_transaction_operations_count",
				Help:    "Number of statements per database transaction",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"operation_type"},
		),
		TransactionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farm_service_transaction_duration_seconds",
				Help:    "Database transaction duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"operation_type"},
		),

		DependencyHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "farm_service_dependency_health",
				Help: "Health status of dependencies (1 = healthy, 0 = unhealthy)",
			},
			[]string{"dependency"},
		),
	}
}

// Initialize sets up initial metric values
func (m *Metrics) Initialize() {
	m.DependencyHealth.WithLabelValues("postgres").Set(0)
	m.DependencyHealth.WithLabelValues("redis").Set(0)
}

// UpdateDependencyHealth updates the health status of a dependency
func (m *Metrics) UpdateDependencyHealth(dependency string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.DependencyHealth.WithLabelValues(dependency).Set(value)
}

// Shutdown performs cleanup of metrics resources
func (m *Metrics) Shutdown() {
	// Currently no cleanup needed for Prometheus metrics
}

// RecordDatabaseQuery records a single repository query
func (m *Metrics) RecordDatabaseQuery(operation, status string, duration time.Duration) {
	m.DatabaseQueriesTotal.WithLabelValues(operation, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRedisCommand records a single Redis command or pipeline
func (m *Metrics) RecordRedisCommand(command, status string, duration time.Duration) {
	m.RedisCommandsTotal.WithLabelValues(command, status).Inc()
	m.RedisCommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}
