package strategy

import (
	"sort"

	"FlipSentinel/internal/model"
)

// RoiOnlyBudget is the budget above which ranking is by ROI alone.
const RoiOnlyBudget int64 = 100_000_000

// rankFactor is one ingredient of the composite score.
type rankFactor struct {
	Name   string
	Weight float64
	Less   func(a, b *model.Candidate) bool // true when a ranks before b
}

var rankFactors = []rankFactor{
	{"profit", 0.5, func(a, b *model.Candidate) bool { return a.ProfitAfterTax > b.ProfitAfterTax }},
	{"volume", 0.3, func(a, b *model.Candidate) bool { return a.Volume > b.Volume }},
	{"roi", 0.2, func(a, b *model.Candidate) bool { return a.ROI > b.ROI }},
}

// scoreComposite fills CompositeScore. Each factor ranks the set
// independently; position i of n scores 1 - i/n. Ties keep input order.
func scoreComposite(cands []model.Candidate) {
	n := len(cands)
	if n == 0 {
		return
	}
	for i := range cands {
		cands[i].CompositeScore = 0
	}
	idx := make([]int, n)
	for _, f := range rankFactors {
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return f.Less(&cands[idx[a]], &cands[idx[b]])
		})
		for rank, ci := range idx {
			cands[ci].CompositeScore += f.Weight * (1 - float64(rank)/float64(n))
		}
	}
}

// Rank orders candidates in place: by composite score, or by ROI when the
// budget exceeds RoiOnlyBudget.
func Rank(cands []model.Candidate, budget int64) {
	scoreComposite(cands)
	if budget > RoiOnlyBudget {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].ROI > cands[j].ROI })
		return
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].CompositeScore > cands[j].CompositeScore })
}
