package strategy

import (
	"FlipSentinel/internal/calculator"
	"FlipSentinel/internal/model"
)

const (
	// AnalysisWindow is how many recent samples feed volatility and anomaly checks.
	AnalysisWindow = 10
	// SoftVolatilityCeiling applies unless high-risk items are requested.
	SoftVolatilityCeiling = 25.0
	// HardVolatilityCeiling always applies.
	HardVolatilityCeiling = 30.0

	MinProfitAfterTax int64 = 1000
	MinROI                  = 5.0
	MaxMarginPercent        = 1000.0
)

// EvaluateItem scores one item against the budget. The boolean is false when
// the item fails any gate; the gates run in a fixed order.
func EvaluateItem(meta model.ItemMeta, samples []model.PriceSample, volume, budget int64, f model.Filters) (model.Candidate, bool) {
	if len(samples) == 0 {
		return model.Candidate{}, false
	}

	// 1. prices
	high, low, ok := currentPrices(samples)
	if !ok {
		return model.Candidate{}, false
	}

	// 2. hard liquidity floor
	if !calculator.SufficientVolume(volume, high) {
		return model.Candidate{}, false
	}

	// 3. margin
	margin := calculator.Margin(high, low)
	avgPrice := float64(high+low) / 2
	if margin <= 0 || avgPrice <= 0 {
		return model.Candidate{}, false
	}

	// 4. volatility
	recentHighs := calculator.PositivePrices(samples, calculator.SideHigh, AnalysisWindow)
	vol := calculator.Volatility(recentHighs)
	if exceedsSoftVolatility(vol, f) || exceedsHardVolatility(vol) {
		return model.Candidate{}, false
	}

	// 5. anomalies
	recentLows := calculator.PositivePrices(samples, calculator.SideLow, AnalysisWindow)
	anomalies := calculator.DetectAnomalies(high, low, recentHighs, recentLows)
	if !f.IncludeSpikes && !anomalies.IsStable {
		return model.Candidate{}, false
	}

	// 6. sizing at the buy price
	qty := calculator.SizeQuantity(budget, float64(low), meta.Limit, volume, 1.0)
	if qty == 0 {
		return model.Candidate{}, false
	}

	c := model.Candidate{
		ItemID:        meta.ItemID,
		Name:          meta.Name,
		Limit:         meta.Limit,
		CurrentHigh:   high,
		CurrentLow:    low,
		AvgPrice:      avgPrice,
		Margin:        margin,
		MarginPercent: calculator.MarginPercent(margin, low),
		Volatility:    vol,
		Risk:          calculator.RiskLevelFor(vol),
		AnomalyReport: anomalies,
		Volume:        volume,
	}
	applyQuantity(&c, qty)
	return c, true
}

// applyQuantity fills the cost and profit fields for qty units.
func applyQuantity(c *model.Candidate, qty int64) {
	c.Quantity = qty
	c.TaxPerUnit = calculator.Tax(c.CurrentHigh)
	c.TaxedProfitPerUnit = c.Margin - c.TaxPerUnit
	c.TotalCost = qty * c.CurrentLow
	c.TotalProfit = qty * c.Margin
	c.ProfitAfterTax = calculator.ProfitAfterTax(c.Margin, c.CurrentHigh, qty)
	c.ROI = calculator.ROI(c.ProfitAfterTax, c.TotalCost)
}

// currentPrices reads the latest high/low. A side missing on the latest
// sample falls back to the newest sample in the window carrying it, but a
// latest sample with neither side is rejected outright.
func currentPrices(samples []model.PriceSample) (high, low int64, ok bool) {
	latest := samples[0]
	high, hasHigh := latest.HighPrice()
	low, hasLow := latest.LowPrice()
	if !hasHigh && !hasLow {
		return 0, 0, false
	}
	for _, s := range samples[1:] {
		if hasHigh && hasLow {
			break
		}
		if !hasHigh {
			high, hasHigh = s.HighPrice()
		}
		if !hasLow {
			low, hasLow = s.LowPrice()
		}
	}
	return high, low, hasHigh && hasLow
}

func exceedsSoftVolatility(vol float64, f model.Filters) bool {
	return !f.IncludeHighRisk && vol > SoftVolatilityCeiling
}

func exceedsHardVolatility(vol float64) bool {
	return vol > HardVolatilityCeiling
}

// passesPostFilters is the second, set-wide filtering pass.
func passesPostFilters(c model.Candidate, f model.Filters) bool {
	switch {
	case c.ProfitAfterTax < MinProfitAfterTax:
		return false
	case c.ROI < MinROI:
		return false
	case c.MarginPercent > MaxMarginPercent:
		return false
	case f.MinVolume > 0 && c.Volume < f.MinVolume:
		return false
	case f.MaxVolatility > 0 && c.Volatility > f.MaxVolatility:
		return false
	}
	return true
}
