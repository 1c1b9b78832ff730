package calculator

import (
	"math"

	"FlipSentinel/internal/model"
)

// VolumeShare is the largest fraction of recent trade volume one position may take.
const VolumeShare = 0.1

// SizeQuantity returns how many units can be bought at unitPrice under the
// budget, the budget fraction, the position limit and the volume share.
func SizeQuantity(budget int64, unitPrice float64, limit model.PositionLimit, volume int64, maxBudgetFraction float64) int64 {
	if budget <= 0 || unitPrice <= 0 {
		return 0
	}
	if maxBudgetFraction <= 0 || maxBudgetFraction > 1 {
		maxBudgetFraction = 1
	}

	byAllocation := floorQty(float64(budget) * maxBudgetFraction / unitPrice)
	byBudget := floorQty(float64(budget) / unitPrice)

	byVolume := model.UnboundedQuantity
	if volume > 0 {
		byVolume = max(1, floorQty(float64(volume)*VolumeShare))
	}

	return max(0, min(limit.Cap(), byAllocation, byBudget, byVolume))
}

func floorQty(v float64) int64 {
	if v >= float64(model.UnboundedQuantity) {
		return model.UnboundedQuantity
	}
	return int64(math.Floor(v))
}
