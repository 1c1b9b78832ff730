package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"FlipSentinel/internal/calculator"
	"FlipSentinel/internal/model"
	"FlipSentinel/internal/recorder"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Items   []model.ItemMeta
	Latest  []model.PriceSample
	Volumes []model.VolumeSample
	History map[int][]model.PriceSample
	Err     error

	mu              sync.Mutex
	mappingCalls    int
	timeseriesCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchMapping(_ context.Context) ([]model.ItemMeta, error) {
	m.mu.Lock()
	m.mappingCalls++
	m.mu.Unlock()
	return m.Items, m.Err
}

func (m *MockFetcher) FetchLatest(_ context.Context) ([]model.PriceSample, error) {
	return m.Latest, m.Err
}

func (m *MockFetcher) FetchVolumes(_ context.Context) ([]model.VolumeSample, error) {
	return m.Volumes, m.Err
}

func (m *MockFetcher) FetchTimeseries(_ context.Context, itemID int, _ string) ([]model.PriceSample, error) {
	m.mu.Lock()
	m.timeseriesCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	h, ok := m.History[itemID]
	if !ok {
		return nil, fmt.Errorf("no history for item %d", itemID)
	}
	return h, nil
}

// MappingCalls reports how many times the mapping endpoint was hit.
func (m *MockFetcher) MappingCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mappingCalls
}

// TimeseriesCalls reports how many history requests were made.
func (m *MockFetcher) TimeseriesCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeseriesCalls
}

// Collector moves market data from a Fetcher into a Recorder and builds
// analysis snapshots from what is stored.
type Collector struct {
	Fetcher     Fetcher
	Recorder    recorder.Recorder
	HistoryStep string
	Concurrency int

	mapping singleflight.Group
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, rec recorder.Recorder, historyStep string, concurrency int) *Collector {
	if historyStep == "" {
		historyStep = "5m"
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Collector{
		Fetcher:     fetcher,
		Recorder:    rec,
		HistoryStep: historyStep,
		Concurrency: concurrency,
	}
}

// SyncMapping refreshes item metadata. Concurrent callers share one fetch.
func (c *Collector) SyncMapping(ctx context.Context) (int, error) {
	v, err, _ := c.mapping.Do("mapping", func() (any, error) {
		items, err := c.Fetcher.FetchMapping(ctx)
		if err != nil {
			return 0, err
		}
		if err := c.Recorder.UpsertItems(items); err != nil {
			return 0, fmt.Errorf("store items: %w", err)
		}
		return len(items), nil
	})
	if err != nil {
		return 0, fmt.Errorf("sync mapping: %w", err)
	}
	return v.(int), nil
}

// RefreshLatest stores the current bid/ask of every item.
func (c *Collector) RefreshLatest(ctx context.Context) (int, error) {
	samples, err := c.Fetcher.FetchLatest(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh latest: %w", err)
	}
	if err := c.Recorder.RecordSamples(samples); err != nil {
		return 0, fmt.Errorf("store latest: %w", err)
	}
	return len(samples), nil
}

// RefreshVolumes stores the 24h trade counts.
func (c *Collector) RefreshVolumes(ctx context.Context) (int, error) {
	vols, err := c.Fetcher.FetchVolumes(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh volumes: %w", err)
	}
	if err := c.Recorder.RecordVolumes(vols); err != nil {
		return 0, fmt.Errorf("store volumes: %w", err)
	}
	return len(vols), nil
}

// BackfillTargets returns the ids of items traded often enough to be worth
// a history backfill, in ascending order.
func (c *Collector) BackfillTargets() ([]int, error) {
	vols, err := c.Recorder.Volumes()
	if err != nil {
		return nil, fmt.Errorf("load volumes: %w", err)
	}
	var ids []int
	for id, v := range vols {
		if v >= calculator.MinVolumeExpensive {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// BackfillHistory fetches and stores the price timeseries of the given
// items with bounded concurrency. Failures of single items are logged and
// skipped; only cancellation aborts the run.
func (c *Collector) BackfillHistory(ctx context.Context, itemIDs []int) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)

	var stored atomic.Int64
	for _, id := range itemIDs {
		id := id // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			samples, err := c.Fetcher.FetchTimeseries(gctx, id, c.HistoryStep)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("[WARN] backfill item %d: %v", id, err)
				return nil
			}
			if err := c.Recorder.RecordSamples(samples); err != nil {
				log.Printf("[WARN] store history item %d: %v", id, err)
				return nil
			}
			stored.Add(int64(len(samples)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(stored.Load()), fmt.Errorf("backfill history: %w", err)
	}
	return int(stored.Load()), nil
}

// Snapshot loads up to window samples per item newer than now-lookback.
// Items without any sample in range are left out.
func (c *Collector) Snapshot(window int, lookback time.Duration, now time.Time) (*model.Snapshot, error) {
	items, err := c.Recorder.Items()
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	vols, err := c.Recorder.Volumes()
	if err != nil {
		return nil, fmt.Errorf("load volumes: %w", err)
	}

	since := now.Add(-lookback)
	snap := &model.Snapshot{
		History: make(map[int][]model.PriceSample),
		Volumes: vols,
		TakenAt: now,
	}
	for _, it := range items {
		samples, err := c.Recorder.RecentSamples(it.ItemID, since, window)
		if err != nil {
			return nil, fmt.Errorf("load samples %d: %w", it.ItemID, err)
		}
		if len(samples) == 0 {
			continue
		}
		snap.Items = append(snap.Items, it)
		snap.History[it.ItemID] = samples
	}
	return snap, nil
}
