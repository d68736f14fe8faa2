package storage

import (
	"context"
	"testing"
	"time"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageLearningAndState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	data, err := store.LoadLearningData(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	saved := preferences.NewLearningData()
	saved.TotalDetections = 7
	require.NoError(t, store.SaveLearningData(ctx, &saved))
	saved.TotalDetections = 99 // caller's copy is not aliased

	data, err = store.LoadLearningData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, data.TotalDetections)

	bad := preferences.NewLearningData()
	bad.Version = "v2.0.0"
	assert.ErrorIs(t, store.SaveLearningData(ctx, &bad), types.ErrValidation)

	require.NoError(t, store.SaveModeState(ctx, types.ModeState{CurrentMode: types.ModePlanning, AutoMode: true}))
	state, err := store.LoadModeState(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ModePlanning, state.CurrentMode)
	assert.True(t, state.AutoMode)
	assert.ErrorIs(t, store.SaveModeState(ctx, types.ModeState{}), types.ErrValidation)

	require.NoError(t, store.Close())
	_, err = store.LoadModeState(ctx)
	assert.Error(t, err)
}

func TestMemoryStorageEventCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 6; i++ {
		e := events.NewSimpleEvent(events.EventTypeModeDetected, types.ModeAnalysis, events.SeverityInfo, "detected")
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.StoreEvent(ctx, e))
	}
	failure := events.NewSimpleEvent(events.EventTypeHybridCompleted, types.ModeHybrid, events.SeverityError, "failed")
	failure.Timestamp = base.AddDate(0, 0, -60)
	require.NoError(t, store.StoreEvent(ctx, failure))

	recent, err := store.GetRecentEvents(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))

	deleted, err := store.CleanupEventsByGlobalLimit(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)

	counts, err := store.GetEventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.TotalEvents)
	assert.Equal(t, 1, counts.EventsBySeverity["error"], "error events survive the global limit")

	deleted, err = store.CleanupEventsByAge(ctx, 30, 30, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}
