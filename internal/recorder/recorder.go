package recorder

import (
	"time"

	"FlipSentinel/internal/model"
)

// SelectionRecord is one portfolio position of a recorded run.
type SelectionRecord struct {
	Rank           int
	ItemID         int
	Quantity       int64
	TotalCost      int64
	ProfitAfterTax int64
	ROI            float64
}

// RunRecord is the summary of one evaluation run.
type RunRecord struct {
	ID                  string
	At                  time.Time
	Budget              int64
	CandidateCount      int
	TotalCost           int64
	TotalProfitAfterTax int64
	TotalROI            float64
	Utilization         float64
	Selections          []SelectionRecord
}

// NewRunRecord flattens an analysis into a record identified by id.
func NewRunRecord(id string, at time.Time, a *model.Analysis) *RunRecord {
	rec := &RunRecord{
		ID:             id,
		At:             at,
		Budget:         a.Budget,
		CandidateCount: len(a.Opportunities),
	}
	if p := a.Portfolio; p != nil {
		rec.TotalCost = p.TotalCost
		rec.TotalProfitAfterTax = p.TotalProfitAfterTax
		rec.TotalROI = p.TotalROI
		rec.Utilization = p.BudgetUtilizationPercent
		for i, s := range p.Selections {
			rec.Selections = append(rec.Selections, SelectionRecord{
				Rank:           i + 1,
				ItemID:         s.ItemID,
				Quantity:       s.Quantity,
				TotalCost:      s.TotalCost,
				ProfitAfterTax: s.ProfitAfterTax,
				ROI:            s.ROI,
			})
		}
	}
	return rec
}

// Recorder stores items, price samples, volumes and evaluation runs.
type Recorder interface {
	UpsertItems(items []model.ItemMeta) error
	RecordSamples(samples []model.PriceSample) error
	RecordVolumes(vols []model.VolumeSample) error
	Items() ([]model.ItemMeta, error)
	// RecentSamples returns at most limit samples newer than since, most recent first.
	RecentSamples(itemID int, since time.Time, limit int) ([]model.PriceSample, error)
	Volumes() (map[int]int64, error)
	RecordRun(run *RunRecord) error
	Close() error
}
