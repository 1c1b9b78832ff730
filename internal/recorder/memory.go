package recorder

import (
	"sort"
	"sync"
	"time"

	"FlipSentinel/internal/model"
)

// MemoryRecorder keeps everything in process memory. Used when SQLite is not
// configured and in tests.
type MemoryRecorder struct {
	mu      sync.RWMutex
	items   map[int]model.ItemMeta
	samples map[int]map[int64]model.PriceSample
	volumes map[int]int64
	runs    []RunRecord
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		items:   make(map[int]model.ItemMeta),
		samples: make(map[int]map[int64]model.PriceSample),
		volumes: make(map[int]int64),
	}
}

func (m *MemoryRecorder) UpsertItems(items []model.ItemMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[it.ItemID] = it
	}
	return nil
}

func (m *MemoryRecorder) RecordSamples(samples []model.PriceSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range samples {
		byTS, ok := m.samples[s.ItemID]
		if !ok {
			byTS = make(map[int64]model.PriceSample)
			m.samples[s.ItemID] = byTS
		}
		key := s.Timestamp.Unix()
		if prev, ok := byTS[key]; ok {
			// keep known sides when an update only carries one of them
			if s.High == nil {
				s.High = prev.High
			}
			if s.Low == nil {
				s.Low = prev.Low
			}
		}
		byTS[key] = s
	}
	return nil
}

func (m *MemoryRecorder) RecordVolumes(vols []model.VolumeSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vols {
		m.volumes[v.ItemID] = v.TradeCount24h
	}
	return nil
}

func (m *MemoryRecorder) Items() ([]model.ItemMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ItemMeta, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (m *MemoryRecorder) RecentSamples(itemID int, since time.Time, limit int) ([]model.PriceSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PriceSample
	for _, s := range m.samples[itemID] {
		if s.Timestamp.Before(since) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRecorder) Volumes() (map[int]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]int64, len(m.volumes))
	for k, v := range m.volumes {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryRecorder) RecordRun(run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// Runs returns the recorded runs in insertion order.
func (m *MemoryRecorder) Runs() []RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RunRecord(nil), m.runs...)
}

func (m *MemoryRecorder) Close() error { return nil }
