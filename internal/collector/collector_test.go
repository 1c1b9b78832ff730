package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlipSentinel/internal/model"
	"FlipSentinel/internal/recorder"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func mockMarket() *MockFetcher {
	return &MockFetcher{
		Items: []model.ItemMeta{
			{ItemID: 561, Name: "Nature rune", Limit: model.Limited(18_000)},
			{ItemID: 453, Name: "Coal", Limit: model.Unlimited()},
			{ItemID: 999, Name: "Rarely traded", Limit: model.Limited(8)},
		},
		Latest: []model.PriceSample{
			{ItemID: 561, Timestamp: now, High: model.Price(190), Low: model.Price(175)},
			{ItemID: 453, Timestamp: now, High: model.Price(180), Low: model.Price(160)},
		},
		Volumes: []model.VolumeSample{
			{ItemID: 561, TradeCount24h: 600_000},
			{ItemID: 453, TradeCount24h: 80_000},
			{ItemID: 999, TradeCount24h: 3},
		},
		History: map[int][]model.PriceSample{
			561: {
				{ItemID: 561, Timestamp: now.Add(-5 * time.Minute), High: model.Price(189), Low: model.Price(176)},
				{ItemID: 561, Timestamp: now.Add(-10 * time.Minute), High: model.Price(191), Low: model.Price(174)},
				{ItemID: 561, Timestamp: now.Add(-48 * time.Hour), High: model.Price(150), Low: model.Price(140)},
			},
		},
	}
}

func TestCollector_RefreshAndSnapshot(t *testing.T) {
	ctx := context.Background()
	f := mockMarket()
	rec := recorder.NewMemoryRecorder()
	c := NewCollector(f, rec, "", 0)
	assert.Equal(t, "5m", c.HistoryStep)
	assert.Equal(t, 4, c.Concurrency)

	n, err := c.SyncMapping(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = c.RefreshLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = c.RefreshVolumes(ctx)
	require.NoError(t, err)

	targets, err := c.BackfillTargets()
	require.NoError(t, err)
	assert.Equal(t, []int{453, 561}, targets)

	// 453 has no history in the mock: logged and skipped.
	stored, err := c.BackfillHistory(ctx, targets)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	snap, err := c.Snapshot(10, 24*time.Hour, now)
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Len(t, snap.History[561], 3, "48h-old sample is outside the lookback")
	assert.True(t, snap.History[561][0].Timestamp.Equal(now))
	assert.Equal(t, int64(600_000), snap.Volumes[561])
	assert.NotContains(t, snap.History, 999)
}

func TestCollector_SnapshotWindow(t *testing.T) {
	ctx := context.Background()
	c := NewCollector(mockMarket(), recorder.NewMemoryRecorder(), "5m", 2)
	_, err := c.SyncMapping(ctx)
	require.NoError(t, err)
	_, err = c.RefreshLatest(ctx)
	require.NoError(t, err)
	_, err = c.BackfillHistory(ctx, []int{561})
	require.NoError(t, err)

	snap, err := c.Snapshot(2, 72*time.Hour, now)
	require.NoError(t, err)
	assert.Len(t, snap.History[561], 2)
}

func TestCollector_FetchErrors(t *testing.T) {
	ctx := context.Background()
	f := mockMarket()
	f.Err = errors.New("upstream down")
	c := NewCollector(f, recorder.NewMemoryRecorder(), "5m", 2)

	_, err := c.SyncMapping(ctx)
	assert.ErrorContains(t, err, "upstream down")
	_, err = c.RefreshLatest(ctx)
	assert.Error(t, err)
	_, err = c.RefreshVolumes(ctx)
	assert.Error(t, err)

	stored, err := c.BackfillHistory(ctx, []int{561, 453})
	assert.NoError(t, err, "per-item failures are not fatal")
	assert.Equal(t, 0, stored)
}

func TestCollector_BackfillCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCollector(mockMarket(), recorder.NewMemoryRecorder(), "5m", 1)
	_, err := c.BackfillHistory(ctx, []int{561, 453})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollector_SyncMappingConcurrent(t *testing.T) {
	f := mockMarket()
	c := NewCollector(f, recorder.NewMemoryRecorder(), "5m", 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.SyncMapping(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 3, n)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, f.MappingCalls(), 1)
	assert.LessOrEqual(t, f.MappingCalls(), 8)
}
