package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
	"github.com/avicola-track/farm-service/internal/service"
)

// defaultCauseCategory is assigned to causes created on the fly from a submitted name
const defaultCauseCategory = "OTHER"

// FlockStorage implements flock, mortality and weight data access on PostgreSQL
type FlockStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewFlockStorage creates a new flock storage
func NewFlockStorage(pool *pgxpool.Pool, logger *slog.Logger) service.FlockRepositoryInterface {
	return &FlockStorage{
		pool:   pool,
		logger: logger,
	}
}

const flockColumns = `id, farm_id, shed_id, breed, initial_quantity, current_quantity, arrival_date, created_at, updated_at`

const mortalityColumns = `id, flock_id, record_date, deaths, cause_id, notes, recorded_by, client_id, created_at, updated_at`

func scanFlock(row pgx.Row) (*models.Flock, error) {
	flock := &models.Flock{}
	err := row.Scan(
		&flock.ID, &flock.FarmID, &flock.ShedID, &flock.Breed, &flock.InitialQuantity,
		&flock.CurrentQuantity, &flock.ArrivalDate, &flock.CreatedAt, &flock.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return flock, nil
}

func scanMortality(row pgx.Row) (*models.MortalityRecord, error) {
	record := &models.MortalityRecord{}
	err := row.Scan(
		&record.ID, &record.FlockID, &record.RecordDate, &record.Deaths, &record.CauseID,
		&record.Notes, &record.RecordedBy, &record.ClientID, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetFlock returns a flock or a RecordNotFoundError
func (s *FlockStorage) GetFlock(ctx context.Context, flockID uuid.UUID) (*models.Flock, error) {
	query := `SELECT ` + flockColumns + ` FROM farm.flocks WHERE id = $1`
	flock, err := scanFlock(s.pool.QueryRow(ctx, query, flockID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internalerrors.NewRecordNotFound("flock", flockID)
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get flock")
	}
	return flock, nil
}

// LockFlock reads a flock with FOR UPDATE so mortality writes on one flock serialize
func (s *FlockStorage) LockFlock(ctx context.Context, tx interface{}, flockID uuid.UUID) (*models.Flock, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + flockColumns + ` FROM farm.flocks WHERE id = $1 FOR UPDATE`
	flock, err := scanFlock(pgxTx.QueryRow(ctx, query, flockID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internalerrors.NewRecordNotFound("flock", flockID)
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "lock flock")
	}
	return flock, nil
}

// UpdateFlockQuantity writes the live headcount; the check constraint rejects negatives
func (s *FlockStorage) UpdateFlockQuantity(ctx context.Context, tx interface{}, flockID uuid.UUID, currentQuantity int) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `UPDATE farm.flocks SET current_quantity = $2, updated_at = NOW() WHERE id = $1`
	tag, err := pgxTx.Exec(ctx, query, flockID, currentQuantity)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "update flock quantity")
	}
	if tag.RowsAffected() == 0 {
		return internalerrors.NewRecordNotFound("flock", flockID)
	}
	return nil
}

// GetMortalityRecordForDate returns the record of a flock for one day, or nil.
// Inside a transaction the row is locked for the merge that follows.
func (s *FlockStorage) GetMortalityRecordForDate(ctx context.Context, tx interface{}, flockID uuid.UUID, date time.Time) (*models.MortalityRecord, error) {
	db, err := on(s.pool, tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + mortalityColumns + ` FROM farm.mortality_records WHERE flock_id = $1 AND record_date = $2`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	record, err := scanMortality(db.QueryRow(ctx, query, flockID, models.DateOnly(date)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get mortality record")
	}
	return record, nil
}

// CreateMortalityRecord inserts a mortality record; a second row for the same day violates the unique key
func (s *FlockStorage) CreateMortalityRecord(ctx context.Context, tx interface{}, record *models.MortalityRecord) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO farm.mortality_records (` + mortalityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = pgxTx.Exec(ctx, query,
		record.ID, record.FlockID, models.DateOnly(record.RecordDate), record.Deaths, record.CauseID,
		record.Notes, record.RecordedBy, record.ClientID, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "create mortality record")
	}
	return nil
}

// UpdateMortalityRecord writes a merged same-day record
func (s *FlockStorage) UpdateMortalityRecord(ctx context.Context, tx interface{}, record *models.MortalityRecord) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE farm.mortality_records
		SET deaths = $2, cause_id = $3, notes = $4, updated_at = $5
		WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, record.ID, record.Deaths, record.CauseID, record.Notes, record.UpdatedAt)
	if err != nil {
		return internalerrors.HandleDatabaseError(err, "update mortality record")
	}
	if tag.RowsAffected() == 0 {
		return internalerrors.NewRecordNotFound("mortality record", record.ID)
	}
	return nil
}

// GetOrCreateCause returns the cause with the given name, inserting it when missing
func (s *FlockStorage) GetOrCreateCause(ctx context.Context, tx interface{}, name string) (*models.MortalityCause, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	// The no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO farm.mortality_causes (id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, category`

	cause := &models.MortalityCause{}
	err = pgxTx.QueryRow(ctx, query, uuid.New(), name, defaultCauseCategory).Scan(&cause.ID, &cause.Name, &cause.Category)
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get or create mortality cause")
	}
	return cause, nil
}

// GetWeightRecordForDate returns the weight sample of a flock for one day, or nil
func (s *FlockStorage) GetWeightRecordForDate(ctx context.Context, flockID uuid.UUID, date time.Time) (*models.WeightRecord, error) {
	query := `
		SELECT id, flock_id, record_date, average_weight, sample_size, created_at
		FROM farm.weight_records
		WHERE flock_id = $1 AND record_date = $2`

	record := &models.WeightRecord{}
	err := s.pool.QueryRow(ctx, query, flockID, models.DateOnly(date)).Scan(
		&record.ID, &record.FlockID, &record.RecordDate, &record.AverageWeight, &record.SampleSize, &record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalerrors.HandleDatabaseError(err, "get weight record")
	}
	return record, nil
}
