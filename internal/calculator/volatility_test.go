package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FlipSentinel/internal/model"
)

func TestVolatility_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility([]float64{}))
	assert.Equal(t, 0.0, Volatility([]float64{100}))
	assert.Equal(t, 0.0, Volatility([]float64{100, 100, 100}))
	assert.Equal(t, 0.0, Volatility([]float64{0, 0}))
}

func TestVolatility_PopulationCV(t *testing.T) {
	// mean 100, population stddev 10 → 10%
	assert.InDelta(t, 10.0, Volatility([]float64{90, 110}), 1e-9)
	// mean 5, population variance 4 → stddev 2 → 40%
	assert.InDelta(t, 40.0, Volatility([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		vol  float64
		want model.RiskLevel
	}{
		{0, model.RiskLow},
		{4.99, model.RiskLow},
		{5, model.RiskMedium},
		{14.9, model.RiskMedium},
		{15, model.RiskHigh},
		{19.9, model.RiskHigh},
		{20, model.RiskExtreme},
		{80, model.RiskExtreme},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.vol), "vol=%.2f", tt.vol)
	}
}

func TestPositivePrices_SkipsMissingAndNonPositive(t *testing.T) {
	now := time.Now()
	samples := []model.PriceSample{
		{Timestamp: now, High: model.Price(120), Low: model.Price(100)},
		{Timestamp: now.Add(-time.Minute), High: nil, Low: model.Price(0)},
		{Timestamp: now.Add(-2 * time.Minute), High: model.Price(-3), Low: model.Price(98)},
		{Timestamp: now.Add(-3 * time.Minute), High: model.Price(118), Low: model.Price(97)},
		{Timestamp: now.Add(-4 * time.Minute), High: model.Price(117), Low: model.Price(96)},
	}
	assert.Equal(t, []float64{120, 118, 117}, PositivePrices(samples, SideHigh, 10))
	assert.Equal(t, []float64{100}, PositivePrices(samples, SideLow, 2))
	assert.Empty(t, PositivePrices(nil, SideLow, 10))
}

func TestPositivePrices_WindowBoundsScan(t *testing.T) {
	now := time.Now()
	var samples []model.PriceSample
	for i := 0; i < 14; i++ {
		s := model.PriceSample{Timestamp: now.Add(-time.Duration(i) * time.Minute), Low: model.Price(int64(100 + i))}
		// Highs are missing on every third sample.
		if i%3 != 0 {
			s.High = model.Price(int64(200 + i))
		}
		samples = append(samples, s)
	}

	highs := PositivePrices(samples, SideHigh, 10)
	assert.Equal(t, []float64{201, 202, 204, 205, 207, 208}, highs, "samples beyond the window are not read")
	assert.Len(t, PositivePrices(samples, SideLow, 10), 10)
	assert.Empty(t, PositivePrices(samples, SideLow, 0))
}
