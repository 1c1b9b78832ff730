package strategy

import (
	"math"

	"FlipSentinel/internal/calculator"
	"FlipSentinel/internal/model"
)

const (
	// MaxPositions is the number of concurrent exchange slots.
	MaxPositions = 8

	looseVolumeShare = 0.2
	tightVolumeShare = 0.1
)

// BuildPortfolio greedily fills up to MaxPositions slots from the ranked
// candidates without spending more than budget.
func BuildPortfolio(cands []model.Candidate, budget int64) *model.Portfolio {
	p := &model.Portfolio{Budget: budget, Selections: []model.Candidate{}}
	if budget <= 0 {
		return p
	}

	remaining := budget
	for _, c := range cands {
		if remaining <= 0 || len(p.Selections) == MaxPositions {
			break
		}
		if c.CurrentLow <= 0 {
			continue
		}

		affordable := remaining / c.CurrentLow
		var qty int64
		if c.Limit.IsUnlimited() {
			share := tightVolumeShare
			if float64(remaining) > float64(budget)*0.5 {
				share = looseVolumeShare
			}
			qty = min(affordable, int64(math.Floor(float64(c.Volume)*share)))
		} else {
			qty = min(c.Quantity, affordable)
		}
		if qty <= 0 {
			continue
		}

		applyQuantity(&c, qty)
		p.Selections = append(p.Selections, c)
		remaining -= c.TotalCost
	}

	for _, s := range p.Selections {
		p.TotalCost += s.TotalCost
		p.TotalProfitAfterTax += s.ProfitAfterTax
	}
	p.TotalROI = calculator.ROI(p.TotalProfitAfterTax, p.TotalCost)
	p.BudgetUtilizationPercent = float64(p.TotalCost) / float64(budget) * 100
	return p
}
