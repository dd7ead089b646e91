package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/avicola-track/farm-service/internal/service"
)

// executor is the query surface shared by *pgxpool.Pool and pgx.Tx
type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ErrInvalidTransaction is returned when a tx handle did not come from TxManager
var ErrInvalidTransaction = errors.New("invalid transaction type")

// asTx casts a service-level transaction handle to pgx.Tx
func asTx(tx interface{}) (pgx.Tx, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok || pgxTx == nil {
		return nil, ErrInvalidTransaction
	}
	return pgxTx, nil
}

// on returns the transaction when one is given, the pool otherwise
func on(pool *pgxpool.Pool, tx interface{}) (executor, error) {
	if tx == nil {
		return pool, nil
	}
	return asTx(tx)
}

// TxManager opens the transactions shared by every write storage
type TxManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	logger      *slog.Logger
}

// NewTxManager creates a transaction manager. A positive lockTimeout bounds every
// row-lock wait so contention surfaces as SQLSTATE 55P03 instead of blocking.
func NewTxManager(pool *pgxpool.Pool, lockTimeout time.Duration, logger *slog.Logger) service.TransactionManager {
	return &TxManager{
		pool:        pool,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// BeginTransaction starts a read-committed transaction
func (m *TxManager) BeginTransaction(ctx context.Context) (interface{}, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if stmt := lockTimeoutStatement(m.lockTimeout); stmt != "" {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, errors.Wrap(err, "failed to set lock timeout")
		}
	}
	return tx, nil
}

// CommitTransaction commits tx
func (m *TxManager) CommitTransaction(ctx context.Context, tx interface{}) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	return pgxTx.Commit(ctx)
}

// RollbackTransaction rolls tx back; rolling back a finished transaction is a no-op
func (m *TxManager) RollbackTransaction(ctx context.Context, tx interface{}) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	// The request context may already be cancelled; rollback must still reach the server
	if err := pgxTx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		m.logger.Warn("Failed to rollback transaction", "error", err)
		return err
	}
	return nil
}

func lockTimeoutStatement(timeout time.Duration) string {
	if timeout <= 0 {
		return ""
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())
}
