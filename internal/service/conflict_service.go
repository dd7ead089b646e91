package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

const (
	defaultConflictPageSize = 50
	maxConflictPageSize     = 200
)

// Resolution actions stored in resolution_data
const (
	ActionKeptServer           = "kept_server"
	ActionAppliedClient        = "applied_client"
	ActionClientIntentRecorded = "client_intent_recorded"
	ActionIgnored              = "ignored"
)

// conflictService implements ConflictService interface
type conflictService struct {
	deps         *ServiceDependencies
	applier      MortalityApplier
	notifier     Notifier
	hooks        []MortalityHook
	cacheManager CacheManager
}

// NewConflictService creates the conflict service. The applier is the same one used by
// direct mortality registration; hooks run after a client resolution commits.
func NewConflictService(deps *ServiceDependencies, applier MortalityApplier, notifier Notifier, hooks ...MortalityHook) ConflictService {
	return &conflictService{
		deps:         deps,
		applier:      applier,
		notifier:     notifier,
		hooks:        hooks,
		cacheManager: NewCacheManager(deps),
	}
}

// ReportConflict classifies a client submission against server state and stores it as PENDING
func (s *conflictService) ReportConflict(ctx context.Context, req *models.ReportConflictRequest, reporter *uuid.UUID) (*models.SyncConflict, error) {
	ctx, span := tracer.Start(ctx, "sync.report_conflict")
	defer span.End()

	payload, err := models.DecodeConflictPayload(req.RecordType, req.ClientData)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	server, farmID, err := s.lookupServerRecord(ctx, payload)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if farmID == nil {
		farmID = req.FarmID
	}

	verdict := ClassifyConflict(server, payload)
	span.SetAttributes(
		attribute.String("conflict.record_type", payload.RecordType()),
		attribute.String("conflict.type", string(verdict.Type)),
		attribute.String("conflict.priority", string(verdict.Priority)),
	)

	conflict := &models.SyncConflict{
		ID:               uuid.New(),
		FarmID:           farmID,
		ConflictType:     verdict.Type,
		RecordType:       payload.RecordType(),
		ServerData:       models.ServerSnapshot(server),
		ClientData:       req.ClientData,
		DeviceInfo:       models.JSONMap{"device_id": req.DeviceID},
		Priority:         verdict.Priority,
		ResolutionStatus: models.ResolutionPending,
		ReportedBy:       reporter,
		ResolutionData:   models.JSONMap{},
		CreatedAt:        s.deps.now(),
	}
	if err := s.deps.Repositories.Conflicts.CreateConflict(ctx, conflict); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "create_sync_conflict"))
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordConflictEvent("reported", string(conflict.ConflictType), string(conflict.Priority))
	}
	s.deps.logger().Info("Sync conflict reported",
		"conflict_id", conflict.ID,
		"record_type", conflict.RecordType,
		"conflict_type", conflict.ConflictType,
		"priority", conflict.Priority)

	s.notify(ctx, conflict, &models.NotificationEvent{
		ID:        uuid.New(),
		Kind:      models.EventConflictCreated,
		Title:     "New sync conflict",
		Body:      fmt.Sprintf("A %s conflict (%s) needs review", conflict.RecordType, conflict.ConflictType),
		Priority:  string(conflict.Priority),
		FarmID:    conflict.FarmID,
		SubjectID: &conflict.ID,
		Payload: models.JSONMap{
			"conflict_id":   conflict.ID.String(),
			"conflict_type": string(conflict.ConflictType),
			"record_type":   conflict.RecordType,
		},
		CreatedAt: conflict.CreatedAt,
	}, false)

	return conflict, nil
}

// lookupServerRecord finds the same-day server record a payload collides with.
// The returned interface is nil when there is none.
func (s *conflictService) lookupServerRecord(ctx context.Context, payload models.ConflictPayload) (models.ServerRecord, *uuid.UUID, error) {
	flocks := s.deps.Repositories.Flocks

	switch p := payload.(type) {
	case *models.MortalityConflictPayload:
		flock, err := flocks.GetFlock(ctx, p.FlockID)
		if err != nil {
			return nil, nil, err
		}
		record, err := flocks.GetMortalityRecordForDate(ctx, nil, p.FlockID, p.Date)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to look up mortality record")
		}
		if record == nil {
			return nil, &flock.FarmID, nil
		}
		return record, &flock.FarmID, nil
	case *models.WeightConflictPayload:
		flock, err := flocks.GetFlock(ctx, p.FlockID)
		if err != nil {
			return nil, nil, err
		}
		record, err := flocks.GetWeightRecordForDate(ctx, p.FlockID, p.Date)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to look up weight record")
		}
		if record == nil {
			return nil, &flock.FarmID, nil
		}
		return record, &flock.FarmID, nil
	default:
		return nil, nil, nil
	}
}

// ResolveConflict applies a resolution strategy. The domain effect and the status
// transition share one transaction; notifications and hooks run after commit.
func (s *conflictService) ResolveConflict(ctx context.Context, in *ResolveInput) (*models.SyncConflict, error) {
	ctx, span := tracer.Start(ctx, "sync.resolve_conflict")
	defer span.End()

	span.SetAttributes(
		attribute.String("conflict.id", in.ConflictID.String()),
		attribute.String("conflict.resolution_type", string(in.ResolutionType)),
	)

	target, ok := in.ResolutionType.TargetStatus()
	if !ok {
		return nil, recordSpanError(span, &internalerrors.InvalidResolutionTypeError{ResolutionType: string(in.ResolutionType)})
	}

	txm := s.deps.Repositories.Transactions
	tx, err := txm.BeginTransaction(ctx)
	if err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to begin transaction"))
	}

	committed := false
	defer func() {
		if !committed {
			_ = txm.RollbackTransaction(ctx, tx)
		}
	}()

	conflicts := s.deps.Repositories.Conflicts
	conflict, err := conflicts.LockConflict(ctx, tx, in.ConflictID)
	if err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "lock_sync_conflict"))
	}
	if conflict.ResolutionStatus.IsTerminal() {
		return nil, recordSpanError(span, &internalerrors.AlreadyResolvedError{
			ConflictID: conflict.ID.String(),
			Status:     string(conflict.ResolutionStatus),
		})
	}

	var (
		data models.JSONMap
		app  *models.MortalityApplication
	)
	switch in.ResolutionType {
	case models.ResolutionTypeServer:
		data = models.JSONMap{"action": ActionKeptServer}
	case models.ResolutionTypeClient:
		data, app, err = s.applyClient(ctx, tx, conflict, in.Actor)
		if err != nil {
			return nil, recordSpanError(span, err)
		}
	case models.ResolutionTypeManual:
		data = in.ResolutionData
		if data == nil {
			data = models.JSONMap{}
		}
	case models.ResolutionTypeIgnore:
		data = models.JSONMap{"action": ActionIgnored}
	}

	now := s.deps.now()
	conflict.ResolutionStatus = target
	conflict.ResolvedBy = in.Actor
	conflict.ResolvedAt = &now
	conflict.ResolutionData = data
	conflict.ResolutionNotes = in.Notes

	if err := conflicts.UpdateConflictResolution(ctx, tx, conflict); err != nil {
		return nil, recordSpanError(span, internalerrors.HandleDatabaseError(err, "update_sync_conflict"))
	}

	if err := txm.CommitTransaction(ctx, tx); err != nil {
		return nil, recordSpanError(span, errors.Wrap(err, "failed to commit transaction"))
	}
	committed = true

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordConflictEvent("resolved", string(conflict.ConflictType), string(conflict.Priority))
	}
	s.deps.logger().Info("Sync conflict resolved",
		"conflict_id", conflict.ID,
		"resolution_status", conflict.ResolutionStatus,
		"resolved_by", in.Actor)

	if app != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordMortalityApplied(MortalityAction(app), app.Increment)
		}
		if err := s.cacheManager.InvalidateFlockCache(ctx, app.Flock.ID); err != nil {
			s.deps.logger().Warn("Failed to invalidate flock cache", "flock_id", app.Flock.ID, "error", err)
		}
		for _, hook := range s.hooks {
			hook.AfterMortality(ctx, app)
		}
	}

	s.notify(ctx, conflict, &models.NotificationEvent{
		ID:        uuid.New(),
		Kind:      models.EventConflictResolved,
		Title:     "Sync conflict resolved",
		Body:      fmt.Sprintf("Conflict on %s data was resolved as %s", conflict.RecordType, conflict.ResolutionStatus),
		Priority:  string(conflict.Priority),
		FarmID:    conflict.FarmID,
		SubjectID: &conflict.ID,
		Payload: models.JSONMap{
			"conflict_id":       conflict.ID.String(),
			"resolution_status": string(conflict.ResolutionStatus),
			"record_type":       conflict.RecordType,
		},
		CreatedAt: now,
	}, true)

	return conflict, nil
}

// applyClient makes the client record win. Mortality goes through the shared applier;
// other record types only record the intent.
func (s *conflictService) applyClient(ctx context.Context, tx interface{}, conflict *models.SyncConflict, actor *uuid.UUID) (models.JSONMap, *models.MortalityApplication, error) {
	payload, err := models.DecodeConflictPayload(conflict.RecordType, conflict.ClientData)
	if err != nil {
		return nil, nil, err
	}

	switch p := payload.(type) {
	case *models.MortalityConflictPayload:
		cmd := &MortalityCommand{
			FlockID:    p.FlockID,
			Date:       p.Date,
			Deaths:     p.Deaths,
			CauseName:  p.CauseName,
			RecordedBy: actor,
		}
		if p.ClientID != "" {
			clientID := p.ClientID
			cmd.ClientID = &clientID
		}

		app, err := s.applier.ApplyInTx(ctx, tx, cmd)
		if err != nil {
			return nil, nil, err
		}
		return models.JSONMap{
			"action":                 ActionAppliedClient,
			"record_type":            models.RecordTypeMortality,
			"mortality_record_id":    app.Record.ID.String(),
			"deaths":                 app.Increment,
			"record_deaths":          app.Record.Deaths,
			"merged":                 app.Merged,
			"flock_current_quantity": app.Flock.CurrentQuantity,
		}, app, nil
	default:
		// other record types keep server data untouched; only the decision is stored
		return models.JSONMap{
			"action":      ActionClientIntentRecorded,
			"record_type": payload.RecordType(),
			"applied":     false,
		}, nil, nil
	}
}

// GetConflict returns one conflict
func (s *conflictService) GetConflict(ctx context.Context, conflictID uuid.UUID) (*models.SyncConflict, error) {
	return s.deps.Repositories.Conflicts.GetConflict(ctx, conflictID)
}

// ListConflicts lists conflicts newest first
func (s *conflictService) ListConflicts(ctx context.Context, filter *models.ConflictFilter) ([]*models.SyncConflict, error) {
	if filter == nil {
		filter = &models.ConflictFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultConflictPageSize
	}
	if filter.Limit > maxConflictPageSize {
		filter.Limit = maxConflictPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	conflicts, err := s.deps.Repositories.Reads.ListConflicts(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sync conflicts")
	}
	return conflicts, nil
}

// notify sends to the farm manager and, when includeReporter is set, to the reporter.
// Failures never reach the caller.
func (s *conflictService) notify(ctx context.Context, conflict *models.SyncConflict, event *models.NotificationEvent, includeReporter bool) {
	if s.notifier == nil {
		return
	}

	var recipients []uuid.UUID
	if includeReporter && conflict.ReportedBy != nil {
		recipients = append(recipients, *conflict.ReportedBy)
	}
	if conflict.FarmID != nil {
		farm, err := s.deps.Repositories.Directory.GetFarm(ctx, *conflict.FarmID)
		if err != nil {
			s.deps.logger().Warn("Failed to load farm for notification", "farm_id", *conflict.FarmID, "error", err)
		} else if farm != nil && farm.ManagerID != nil &&
			(len(recipients) == 0 || recipients[0] != *farm.ManagerID) {
			recipients = append(recipients, *farm.ManagerID)
		}
	}
	if len(recipients) == 0 {
		s.deps.logger().Debug("No notification recipients", "conflict_id", conflict.ID, "event", event.Kind)
		return
	}

	s.notifier.Notify(ctx, event, recipients)
}
