package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

func TestEntranceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	capacity := 200
	e, err := svc.Entrances.Create(ctx, model.CreateEntranceRequest{Name: " North Gate ", EventID: "ev1", MaxCapacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, "North Gate", e.Name)
	assert.Zero(t, e.ScanCount)
	assert.Nil(t, e.LastScanTime)

	_, err = svc.Entrances.Create(ctx, model.CreateEntranceRequest{Name: "North Gate", EventID: "ev1"})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Entrance with this name already exists for this event", apperr.Message(err))

	other, err := svc.Entrances.Create(ctx, model.CreateEntranceRequest{Name: "North Gate", EventID: "ev2"})
	require.NoError(t, err)

	list, err := svc.Entrances.List(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	rename := "South Gate"
	updated, err := svc.Entrances.Update(ctx, e.ID, model.UpdateEntranceRequest{Name: &rename})
	require.NoError(t, err)
	assert.Equal(t, "South Gate", updated.Name)
	assert.Equal(t, 200, *updated.MaxCapacity)

	moved := "ev1"
	_, err = svc.Entrances.Update(ctx, other.ID, model.UpdateEntranceRequest{EventID: &moved, Name: &rename})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	zero := 0
	_, err = svc.Entrances.Update(ctx, e.ID, model.UpdateEntranceRequest{MaxCapacity: &zero})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, svc.Entrances.Delete(ctx, e.ID))
	_, err = svc.Entrances.Get(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Entrances.Delete(ctx, e.ID), apperr.ErrNotFound)
}

func TestRecordScanConcurrently(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	e, err := svc.Entrances.Create(ctx, model.CreateEntranceRequest{Name: "Main", EventID: "ev"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Entrances.RecordScan(ctx, e.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Entrances.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.ScanCount)
	assert.NotNil(t, got.LastScanTime)

	_, err = svc.Entrances.RecordScan(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEntranceStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	stats, err := svc.Entrances.StatsForEvent(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)

	a, err := svc.Entrances.Create(ctx, model.CreateEntranceRequest{Name: "A", EventID: "ev"})
	require.NoError(t, err)
	b, err := svc.Entrances.Create(ctx, model.CreateEntranceRequest{Name: "B", EventID: "ev"})
	require.NoError(t, err)

	stats, err = svc.Entrances.StatsForEvent(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	for _, s := range stats {
		assert.Zero(t, s.Percentage)
		assert.Nil(t, s.LastScan)
	}

	for i := 0; i < 3; i++ {
		_, err = svc.Entrances.RecordScan(ctx, a.ID)
		require.NoError(t, err)
	}
	_, err = svc.Entrances.RecordScan(ctx, b.ID)
	require.NoError(t, err)

	stats, err = svc.Entrances.StatsForEvent(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, "A", stats[0].EntranceName)
	assert.Equal(t, int64(3), stats[0].ScannedCount)
	assert.Equal(t, 75, stats[0].Percentage)
	assert.Equal(t, 25, stats[1].Percentage)
}
