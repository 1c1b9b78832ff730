package calculator

import (
	"math"

	"FlipSentinel/internal/model"
)

// Volatility returns the coefficient of variation of prices as a percentage,
// using the population variance. Fewer than two samples give 0.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	mean := Mean(prices)
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, p := range prices {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(prices))
	return math.Sqrt(variance) / mean * 100
}

// RiskLevelFor maps a volatility percentage to an advisory risk band.
func RiskLevelFor(volatility float64) model.RiskLevel {
	switch {
	case volatility < 5:
		return model.RiskLow
	case volatility < 15:
		return model.RiskMedium
	case volatility < 20:
		return model.RiskHigh
	default:
		return model.RiskExtreme
	}
}

// Side selects one side of a PriceSample.
type Side int

const (
	SideHigh Side = iota
	SideLow
)

// PositivePrices returns the strictly positive prices of one side among the
// n most recent samples, keeping their most-recent-first order.
func PositivePrices(samples []model.PriceSample, side Side, n int) []float64 {
	if n < len(samples) {
		samples = samples[:max(n, 0)]
	}
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		var v int64
		var ok bool
		if side == SideHigh {
			v, ok = s.HighPrice()
		} else {
			v, ok = s.LowPrice()
		}
		if ok && v > 0 {
			out = append(out, float64(v))
		}
	}
	return out
}
