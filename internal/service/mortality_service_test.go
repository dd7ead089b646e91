package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/avicola-track/farm-service/internal/errors"
	"github.com/avicola-track/farm-service/internal/models"
)

func TestMortalityService_RegisterMortality(t *testing.T) {
	t.Run("Creates record and decrements flock", func(t *testing.T) {
		ctx := context.Background()
		env := newTestEnv()
		flock, _ := env.seedFlock(100)
		actor := uuid.New()

		app, err := env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{
			FlockID:    flock.ID,
			Date:       day(0),
			Deaths:     5,
			CauseName:  "Heat stress",
			RecordedBy: &actor,
		})

		require.NoError(t, err)
		assert.False(t, app.Merged)
		assert.Equal(t, 5, app.Increment)
		assert.Equal(t, 95, app.Flock.CurrentQuantity)
		assert.Equal(t, 95, env.store.flock(flock.ID).CurrentQuantity)
		require.NotNil(t, app.Record.CauseID)
		assert.Equal(t, models.SyncActionCreated, MortalityAction(app))
	})

	t.Run("Same-day submissions merge", func(t *testing.T) {
		ctx := context.Background()
		env := newTestEnv()
		flock, _ := env.seedFlock(100)

		first, err := env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 3, Notes: "morning"})
		require.NoError(t, err)
		second, err := env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 4, Notes: "evening"})
		require.NoError(t, err)

		assert.True(t, second.Merged)
		assert.Equal(t, first.Record.ID, second.Record.ID)
		assert.Equal(t, 7, second.Record.Deaths)
		assert.Equal(t, "morning\nevening", second.Record.Notes)
		assert.Equal(t, 93, env.store.flock(flock.ID).CurrentQuantity)

		records := env.store.mortalityRecords(flock.ID)
		require.Len(t, records, 1)
		assert.Equal(t, 7, records[0].Deaths)
	})

	t.Run("Exceeding live count is rejected", func(t *testing.T) {
		env := newTestEnv()
		flock, _ := env.seedFlock(10)

		_, err := env.svc.Mortality.RegisterMortality(context.Background(), &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 11})

		require.Error(t, err)
		assert.True(t, internalerrors.IsExceedsLiveCount(err))
		assert.Equal(t, 10, env.store.flock(flock.ID).CurrentQuantity)
		assert.Empty(t, env.store.mortalityRecords(flock.ID))
	})

	t.Run("Merge exceeding live count is a duplicate conflict", func(t *testing.T) {
		ctx := context.Background()
		env := newTestEnv()
		flock, _ := env.seedFlock(10)

		_, err := env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 6})
		require.NoError(t, err)

		_, err = env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 5})

		assert.True(t, internalerrors.IsDuplicateRecordConflict(err))
		assert.Equal(t, 4, env.store.flock(flock.ID).CurrentQuantity)
	})

	t.Run("Zero deaths is invalid", func(t *testing.T) {
		env := newTestEnv()
		flock, _ := env.seedFlock(10)

		_, err := env.svc.Mortality.RegisterMortality(context.Background(), &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 0})

		assert.True(t, internalerrors.IsInvalidQuantity(err))
	})

	t.Run("Unknown flock", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.svc.Mortality.RegisterMortality(context.Background(), &MortalityCommand{FlockID: uuid.New(), Date: day(0), Deaths: 1})

		assert.True(t, internalerrors.IsRecordNotFound(err))
	})

	t.Run("Flock update failure rolls back the record", func(t *testing.T) {
		env := newTestEnv()
		flock, _ := env.seedFlock(10)
		env.store.failOn["UpdateFlockQuantity"] = errors.New("connection reset")

		_, err := env.svc.Mortality.RegisterMortality(context.Background(), &MortalityCommand{FlockID: flock.ID, Date: day(0), Deaths: 2})

		require.Error(t, err)
		assert.Empty(t, env.store.mortalityRecords(flock.ID))
		assert.Equal(t, 10, env.store.flock(flock.ID).CurrentQuantity)
	})
}

func TestMortalityService_Conservation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	flock, _ := env.seedFlock(50)

	applied := 0
	for i, deaths := range []int{4, 9, 1, 30, 12, 2} {
		app, err := env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{FlockID: flock.ID, Date: day(-i % 3), Deaths: deaths})
		if err == nil {
			applied += app.Increment
		}
		current := env.store.flock(flock.ID).CurrentQuantity
		assert.Equal(t, flock.InitialQuantity-applied, current)
		assert.GreaterOrEqual(t, current, 0)
	}
}

func TestMortalityService_SyncMortality(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	flock, _ := env.seedFlock(20)
	actor := uuid.New()

	items := []models.MortalitySyncItem{
		{ClientID: "dev-1", FlockID: flock.ID, Date: "2024-03-14", Deaths: 2},
		{ClientID: "dev-2", FlockID: flock.ID, Date: "not-a-date", Deaths: 1},
		{ClientID: "dev-3", FlockID: flock.ID, Date: "2024-03-14", Deaths: 3},
		{ClientID: "dev-4", FlockID: flock.ID, Date: "2024-03-15", Deaths: 500},
		{ClientID: "dev-5", FlockID: uuid.New(), Date: "2024-03-15", Deaths: 1},
	}

	response, err := env.svc.Mortality.SyncMortality(ctx, items, &actor)

	require.NoError(t, err)
	require.Len(t, response.Results, 5)
	assert.Equal(t, 2, response.Succeeded)
	assert.Equal(t, 3, response.Failed)

	assert.Equal(t, models.SyncStatusSuccess, response.Results[0].Status)
	assert.Equal(t, models.SyncActionCreated, response.Results[0].Action)
	assert.Equal(t, models.SyncStatusError, response.Results[1].Status)
	assert.Equal(t, models.SyncActionUpdated, response.Results[2].Action)
	assert.Equal(t, *response.Results[0].ServerID, *response.Results[2].ServerID)
	assert.Equal(t, models.SyncStatusError, response.Results[3].Status)
	assert.Equal(t, models.SyncStatusError, response.Results[4].Status)
	for i, result := range response.Results {
		assert.Equal(t, items[i].ClientID, result.ClientID)
	}

	assert.Equal(t, 15, env.store.flock(flock.ID).CurrentQuantity)
}

func TestMortalityService_CalculateMortalityStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	flock, _ := env.seedFlock(200)

	worst := models.MortalityRecord{ID: uuid.New(), FlockID: flock.ID, RecordDate: day(-2), Deaths: 6}
	env.store.putMortality(models.MortalityRecord{ID: uuid.New(), FlockID: flock.ID, RecordDate: day(0), Deaths: 2})
	env.store.putMortality(worst)
	env.store.putMortality(models.MortalityRecord{ID: uuid.New(), FlockID: flock.ID, RecordDate: day(-6), Deaths: 6})
	// Outside the 7 day window
	env.store.putMortality(models.MortalityRecord{ID: uuid.New(), FlockID: flock.ID, RecordDate: day(-7), Deaths: 50})

	stats, err := env.svc.Mortality.CalculateMortalityStats(ctx, flock.ID, 0)

	require.NoError(t, err)
	assert.Equal(t, 14, stats.TotalDeaths)
	assert.InDelta(t, 7.0, stats.MortalityRate, 1e-9)
	assert.InDelta(t, 2.0, stats.DailyAverage, 1e-9)
	assert.Equal(t, "2024-03-09 - 2024-03-15", stats.Period)
	require.Len(t, stats.Series, DefaultStatsDays)
	assert.Equal(t, "2024-03-09", stats.Series[0].Date)
	assert.Equal(t, 6, stats.Series[0].Deaths)
	assert.InDelta(t, 3.0, stats.Series[0].MortalityRate, 1e-9)
	assert.Equal(t, 0, stats.Series[1].Deaths)
	require.NotNil(t, stats.WorstDay)
	assert.Equal(t, 6, stats.WorstDay.Deaths)
}

func TestMortalityService_ConcurrentSubmissionsNeverOverdraw(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrent test in short mode")
	}

	ctx := context.Background()
	env := newTestEnv()
	flock, _ := env.seedFlock(40)

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			app, err := env.svc.Mortality.RegisterMortality(ctx, &MortalityCommand{FlockID: flock.ID, Date: day(-(i % 4)), Deaths: 3})
			if err != nil {
				return
			}
			mu.Lock()
			applied += app.Increment
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	current := env.store.flock(flock.ID).CurrentQuantity
	assert.GreaterOrEqual(t, current, 0)
	assert.Equal(t, 40-applied, current)

	total := 0
	for _, r := range env.store.mortalityRecords(flock.ID) {
		total += r.Deaths
	}
	assert.Equal(t, applied, total)
}
