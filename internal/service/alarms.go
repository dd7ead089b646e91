package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avicola-track/farm-service/internal/models"
)

// Alarm priorities
const (
	AlarmPriorityMedium = "MEDIUM"
	AlarmPriorityHigh   = "HIGH"
)

// DailyMortalityRate is deaths over the headcount before they were applied, in percent
func DailyMortalityRate(deaths, currentAfter int) float64 {
	before := currentAfter + deaths
	if before <= 0 {
		return 0
	}
	return float64(deaths) / float64(before) * 100
}

// MortalityAlarmPriority reports whether rate triggers cfg and with which priority.
// Without a critical threshold, twice the threshold escalates to HIGH.
func MortalityAlarmPriority(rate float64, cfg *models.AlarmConfiguration) (string, bool) {
	if cfg == nil || !cfg.IsActive || rate < cfg.ThresholdValue {
		return "", false
	}
	critical := cfg.ThresholdValue * 2
	if cfg.CriticalThreshold != nil {
		critical = *cfg.CriticalThreshold
	}
	if rate >= critical {
		return AlarmPriorityHigh, true
	}
	return AlarmPriorityMedium, true
}

// mortalityAlarmHook raises farm alarms for high daily mortality
type mortalityAlarmHook struct {
	deps     *ServiceDependencies
	notifier Notifier
}

// NewMortalityAlarmHook creates the post-commit mortality alarm check
func NewMortalityAlarmHook(deps *ServiceDependencies, notifier Notifier) MortalityHook {
	return &mortalityAlarmHook{
		deps:     deps,
		notifier: notifier,
	}
}

// AfterMortality evaluates the farm's alarm configuration; failures are logged only
func (h *mortalityAlarmHook) AfterMortality(ctx context.Context, app *models.MortalityApplication) {
	if app == nil || app.Flock == nil || app.Record == nil {
		return
	}
	logger := h.deps.logger()
	flock := app.Flock

	rate := DailyMortalityRate(app.Increment, flock.CurrentQuantity)
	if rate <= 0 {
		return
	}

	cfg, err := h.deps.Repositories.Alarms.GetActiveConfiguration(ctx, flock.FarmID, models.AlarmTypeMortality)
	if err != nil {
		logger.Error("Failed to load mortality alarm configuration", "farm_id", flock.FarmID, "error", err)
		return
	}
	priority, triggered := MortalityAlarmPriority(rate, cfg)
	if !triggered {
		return
	}

	flockID := flock.ID
	alarm := &models.Alarm{
		ID:          uuid.New(),
		FarmID:      flock.FarmID,
		FlockID:     &flockID,
		AlarmType:   models.AlarmTypeMortality,
		Description: fmt.Sprintf("Daily mortality of %.2f%% (%d deaths) on %s", rate, app.Increment, app.Record.RecordDate.Format("2006-01-02")),
		Priority:    priority,
		CreatedAt:   h.deps.now(),
	}
	if err := h.deps.Repositories.Alarms.CreateAlarm(ctx, alarm); err != nil {
		logger.Error("Failed to create mortality alarm", "flock_id", flock.ID, "error", err)
		return
	}

	logger.Warn("Mortality alarm raised",
		"alarm_id", alarm.ID,
		"flock_id", flock.ID,
		"rate", rate,
		"priority", priority)

	if h.notifier == nil {
		return
	}
	farm, err := h.deps.Repositories.Directory.GetFarm(ctx, flock.FarmID)
	if err != nil || farm == nil || farm.ManagerID == nil {
		if err != nil {
			logger.Warn("Failed to load farm for alarm notification", "farm_id", flock.FarmID, "error", err)
		}
		return
	}

	farmID := flock.FarmID
	h.notifier.Notify(ctx, &models.NotificationEvent{
		ID:        uuid.New(),
		Kind:      models.EventMortalityAlarm,
		Title:     "High mortality alarm",
		Body:      alarm.Description,
		Priority:  priority,
		FarmID:    &farmID,
		SubjectID: &alarm.ID,
		Payload: models.JSONMap{
			"flock_id":       flock.ID.String(),
			"mortality_rate": rate,
			"deaths":         app.Increment,
		},
		CreatedAt: alarm.CreatedAt,
	}, []uuid.UUID{*farm.ManagerID})
}
