package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/avicola-track/farm-service/pkg/metrics"
)

const connectTimeout = 10 * time.Second

// PostgresDB wraps pgxpool.Pool; write repositories use the pool directly and
// read repositories share it through an sqlx handle
type PostgresDB struct {
	pool    *pgxpool.Pool
	sqlxDB  *sqlx.DB
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// poolConfig parses the URL and applies the pool limits
func poolConfig(databaseURL string, maxConns int) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute
	config.ConnConfig.RuntimeParams["application_name"] = "farm-service"
	return config, nil
}

// NewPostgresDB creates a new PostgreSQL connection pool
func NewPostgresDB(databaseURL string, maxConns int, logger *slog.Logger, metricsCollector *metrics.Metrics) (*PostgresDB, error) {
	config, err := poolConfig(databaseURL, maxConns)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{
		pool:    pool,
		sqlxDB:  sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		logger:  logger,
		metrics: metricsCollector,
	}

	if metricsCollector != nil {
		metricsCollector.DatabaseConnections.Set(float64(pool.Stat().TotalConns()))
		metricsCollector.UpdateDependencyHealth("postgres", true)
	}

	logger.Info("PostgreSQL connection established",
		"max_conns", maxConns,
		"database", config.ConnConfig.Database,
		"host", config.ConnConfig.Host,
		"port", config.ConnConfig.Port,
	)

	return db, nil
}

// Pool returns the underlying pgxpool.Pool
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// SQLX returns an sqlx handle backed by the same pool
func (db *PostgresDB) SQLX() *sqlx.DB {
	return db.sqlxDB
}

// Migrate runs the given scripts in order, each in its own transaction
func (db *PostgresDB) Migrate(ctx context.Context, scripts []string) error {
	for i, script := range scripts {
		tx, err := db.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(ctx, script); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	db.logger.Info("Database migrations applied", "scripts", len(scripts))
	return nil
}

// Health checks the health of the database connection
func (db *PostgresDB) Health(ctx context.Context) error {
	err := db.pool.Ping(ctx)
	if db.metrics != nil {
		db.metrics.UpdateDependencyHealth("postgres", err == nil)
		if err == nil {
			db.metrics.DatabaseConnections.Set(float64(db.pool.Stat().TotalConns()))
		}
	}
	return err
}

// Close closes the sqlx handle and the pool
func (db *PostgresDB) Close() {
	if db.pool == nil {
		return
	}
	if db.sqlxDB != nil {
		_ = db.sqlxDB.Close()
	}
	db.pool.Close()
	db.logger.Info("PostgreSQL connection pool closed")

	if db.metrics != nil {
		db.metrics.DatabaseConnections.Set(0)
		db.metrics.UpdateDependencyHealth("postgres", false)
	}
}

// Stats returns connection pool statistics
func (db *PostgresDB) Stats() map[string]interface{} {
	if db.pool == nil {
		return map[string]interface{}{"status": "disconnected"}
	}

	stats := db.pool.Stat()
	return map[string]interface{}{
		"status":         "connected",
		"total_conns":    stats.TotalConns(),
		"acquired_conns": stats.AcquiredConns(),
		"idle_conns":     stats.IdleConns(),
		"max_conns":      stats.MaxConns(),
	}
}
