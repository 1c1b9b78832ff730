package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"FlipSentinel/internal/model"
)

var (
	// ErrInvalidBudget is returned for non-positive budgets.
	ErrInvalidBudget = errors.New("budget must be positive")
	// ErrNilSnapshot is returned when Analyze has nothing to work on.
	ErrNilSnapshot = errors.New("snapshot is nil")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// ValidateFilters checks caller-supplied filters.
func ValidateFilters(f model.Filters) error {
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid filters: %w", err)
	}
	return nil
}

// EvaluateOpportunities scores every item, drops the ones failing any
// filter and returns the survivors in ranked order. Items are visited in
// ItemID order, so identical inputs give identical output.
func EvaluateOpportunities(items []model.ItemMeta, history map[int][]model.PriceSample, volumes map[int]int64, budget int64, f model.Filters) ([]model.Candidate, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if err := ValidateFilters(f); err != nil {
		return nil, err
	}

	ordered := make([]model.ItemMeta, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ItemID < ordered[j].ItemID })

	cands := make([]model.Candidate, 0, len(ordered))
	for _, meta := range ordered {
		samples := history[meta.ItemID]
		if len(samples) == 0 {
			continue
		}
		c, ok := EvaluateItem(meta, samples, volumes[meta.ItemID], budget, f)
		if !ok || !passesPostFilters(c, f) {
			continue
		}
		cands = append(cands, c)
	}

	Rank(cands, budget)
	return cands, nil
}

// Analyze runs a full evaluation over a snapshot and builds the portfolio.
func Analyze(snap *model.Snapshot, budget int64, f model.Filters) (*model.Analysis, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	cands, err := EvaluateOpportunities(snap.Items, snap.History, snap.Volumes, budget, f)
	if err != nil {
		return nil, fmt.Errorf("evaluate opportunities: %w", err)
	}
	return &model.Analysis{
		Budget:        budget,
		Opportunities: cands,
		Portfolio:     BuildPortfolio(cands, budget),
	}, nil
}
