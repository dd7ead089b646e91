package storage

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

// NotificationLogStorage appends delivered notifications to farm.notification_log
type NotificationLogStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewNotificationLogStorage creates a new notification log storage
func NewNotificationLogStorage(pool *pgxpool.Pool, logger *slog.Logger) *NotificationLogStorage {
	return &NotificationLogStorage{
		pool:   pool,
		logger: logger,
	}
}

// InsertNotification stores one delivery
func (s *NotificationLogStorage) InsertNotification(ctx context.Context, entry *models.NotificationLogEntry) error {
	query := `
		INSERT INTO farm.notification_log
			(id, recipient_id, event_kind, title, body, priority, subject_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, query,
		entry.ID, entry.RecipientID, entry.EventKind, entry.Title, entry.Body,
		entry.Priority, entry.SubjectID, entry.Payload, entry.CreatedAt,
	)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "insert notification")
	}
	return nil
}
