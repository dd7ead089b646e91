package storage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// DirectoryStorage resolves farms and users, and stores alarms
type DirectoryStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// DirectoryRepository is the combined farm, user and alarm access of DirectoryStorage
type DirectoryRepository interface {
	service.DirectoryRepositoryInterface
	service.AlarmRepositoryInterface
}

// NewDirectoryStorage creates a new directory storage
func NewDirectoryStorage(pool *pgxpool.Pool, logger *slog.Logger) DirectoryRepository {
	return &DirectoryStorage{
		pool:   pool,
		logger: logger,
	}
}

// GetFarm returns a farm or nil when it does not exist
func (s *DirectoryStorage) GetFarm(ctx context.Context, farmID uuid.UUID) (*models.Farm, error) {
	query := `SELECT id, name, manager_id, created_at FROM farm.farms WHERE id = $1`

	farm := &models.Farm{}
	err := s.pool.QueryRow(ctx, query, farmID).Scan(&farm.ID, &farm.Name, &farm.ManagerID, &farm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get farm")
	}
	return farm, nil
}

// GetUser returns a user or nil when it does not exist
func (s *DirectoryStorage) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, email, telegram_id FROM farm.users WHERE id = $1`

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.Email, &user.TelegramID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get user")
	}
	return user, nil
}

// GetActiveConfiguration returns the active alarm configuration of a farm, or nil
func (s *DirectoryStorage) GetActiveConfiguration(ctx context.Context, farmID uuid.UUID, alarmType string) (*models.AlarmConfiguration, error) {
	query := `
		SELECT id, farm_id, alarm_type, threshold_value, critical_threshold, is_active
		FROM farm.alarm_configurations
		WHERE farm_id = $1 AND alarm_type = $2 AND is_active
		LIMIT 1`

	cfg := &models.AlarmConfiguration{}
	err := s.pool.QueryRow(ctx, query, farmID, alarmType).Scan(
		&cfg.ID, &cfg.FarmID, &cfg.AlarmType, &cfg.ThresholdValue, &cfg.CriticalThreshold, &cfg.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get alarm configuration")
	}
	return cfg, nil
}

// CreateAlarm stores a raised alarm
func (s *DirectoryStorage) CreateAlarm(ctx context.Context, alarm *models.Alarm) error {
	query := `
		INSERT INTO farm.alarms (id, farm_id, flock_id, alarm_type, description, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		alarm.ID, alarm.FarmID, alarm.FlockID, alarm.AlarmType, alarm.Description, alarm.Priority, alarm.CreatedAt,
	)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "create alarm")
	}

	s.logger.Info("Alarm raised", "alarm_id", alarm.ID, "farm_id", alarm.FarmID, "priority", alarm.Priority)
	return nil
}
