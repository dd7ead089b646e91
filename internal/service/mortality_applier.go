package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

// mortalityApplier implements MortalityApplier interface
type mortalityApplier struct {
	deps *ServiceDependencies
}

// NewMortalityApplier creates the single mortality application path
func NewMortalityApplier(deps *ServiceDependencies) MortalityApplier {
	return &mortalityApplier{
		deps: deps,
	}
}

// ApplyInTx validates and applies deaths under a row lock on the flock.
// A second application for the same flock and day is merged into the existing
// record: its deaths are added and the cumulative total is re-validated.
// The flock is decremented by the new deaths only.
func (a *mortalityApplier) ApplyInTx(ctx context.Context, tx interface{}, cmd *MortalityCommand) (*models.MortalityApplication, error) {
	ctx, span := tracer.Start(ctx, "mortality.apply")
	defer span.End()

	span.SetAttributes(
		attribute.String("flock.id", cmd.FlockID.String()),
		attribute.Int("mortality.deaths", cmd.Deaths),
	)

	if cmd.Deaths <= 0 {
		return nil, recordSpanError(span, &internalerrors.InvalidQuantityError{Field: "deaths", Value: strconv.Itoa(cmd.Deaths)})
	}
	if cmd.Date.IsZero() {
		return nil, recordSpanError(span, errors.Wrap(models.ErrInvalidPayload, "date is required"))
	}
	date := models.DateOnly(cmd.Date)

	flocks := a.deps.Repositories.Flocks
	flock, err := flocks.LockFlock(ctx, tx, cmd.FlockID)
	if err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "lock_flock"))
	}

	existing, err := flocks.GetMortalityRecordForDate(ctx, tx, flock.ID, date)
	if err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "get_mortality_record"))
	}

	if existing == nil && cmd.Deaths > flock.CurrentQuantity {
		return nil, recordSpanError(span, &internalerrors.ExceedsLiveCountError{
			FlockID:   flock.ID.String(),
			Requested: cmd.Deaths,
			Available: flock.CurrentQuantity,
		})
	}
	if existing != nil && existing.Deaths+cmd.Deaths > flock.CurrentQuantity+existing.Deaths {
		return nil, recordSpanError(span, &internalerrors.DuplicateRecordConflictError{
			Resource:  "mortality_record",
			Key:       fmt.Sprintf("%s:%s", flock.ID, date.Format("2006-01-02")),
			Existing:  existing.Deaths,
			Requested: cmd.Deaths,
			Available: flock.CurrentQuantity,
			Message: fmt.Sprintf("total mortality %d for %s exceeds flock quantity %d",
				existing.Deaths+cmd.Deaths, date.Format("2006-01-02"), flock.CurrentQuantity+existing.Deaths),
		})
	}

	var causeID *uuid.UUID
	if name := strings.TrimSpace(cmd.CauseName); name != "" {
		cause, err := flocks.GetOrCreateCause(ctx, tx, name)
		if err != nil {
			return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "get_or_create_cause"))
		}
		causeID = &cause.ID
	}

	now := a.deps.now()
	app := &models.MortalityApplication{Increment: cmd.Deaths}

	if existing == nil {
		record := &models.MortalityRecord{
			ID:         uuid.New(),
			FlockID:    flock.ID,
			RecordDate: date,
			Deaths:     cmd.Deaths,
			CauseID:    causeID,
			Notes:      cmd.Notes,
			RecordedBy: cmd.RecordedBy,
			ClientID:   cmd.ClientID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := flocks.CreateMortalityRecord(ctx, tx, record); err != nil {
			return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "create_mortality_record"))
		}
		app.Record = record
	} else {
		existing.Deaths += cmd.Deaths
		if causeID != nil {
			existing.CauseID = causeID
		}
		if cmd.Notes != "" {
			if existing.Notes != "" {
				existing.Notes += "\n"
			}
			existing.Notes += cmd.Notes
		}
		existing.UpdatedAt = now
		if err := flocks.UpdateMortalityRecord(ctx, tx, existing); err != nil {
			return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "update_mortality_record"))
		}
		app.Record = existing
		app.Merged = true
	}

	flock.CurrentQuantity -= cmd.Deaths
	flock.UpdatedAt = now
	if err := flocks.UpdateFlockQuantity(ctx, tx, flock.ID, flock.CurrentQuantity); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "update_flock_quantity"))
	}
	app.Flock = flock

	span.SetAttributes(
		attribute.Bool("mortality.merged", app.Merged),
		attribute.Int("flock.current_quantity", flock.CurrentQuantity),
	)
	return app, nil
}

// MortalityAction reports whether an application created or updated the day record
func MortalityAction(app *models.MortalityApplication) string {
	if app.Merged {
		return models.SyncActionUpdated
	}
	return models.SyncActionCreated
}
