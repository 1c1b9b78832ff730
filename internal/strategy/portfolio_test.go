package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlipSentinel/internal/calculator"
	"FlipSentinel/internal/model"
)

func candidate(id int, high, low int64, limit model.PositionLimit, qty, volume int64) model.Candidate {
	c := model.Candidate{
		ItemID:      id,
		Limit:       limit,
		CurrentHigh: high,
		CurrentLow:  low,
		Margin:      calculator.Margin(high, low),
		Volume:      volume,
	}
	applyQuantity(&c, qty)
	return c
}

func TestBuildPortfolio_UnlimitedVolumeShareTightens(t *testing.T) {
	var cands []model.Candidate
	for i := 1; i <= 4; i++ {
		cands = append(cands, candidate(i, 130, 100, model.Unlimited(), 0, 10_000))
	}
	p := BuildPortfolio(cands, 1_000_000)

	require.Len(t, p.Selections, 4)
	assert.Equal(t, int64(2_000), p.Selections[0].Quantity)
	assert.Equal(t, int64(2_000), p.Selections[1].Quantity)
	assert.Equal(t, int64(2_000), p.Selections[2].Quantity)
	// 400k left is no longer more than half the budget.
	assert.Equal(t, int64(1_000), p.Selections[3].Quantity)

	assert.Equal(t, int64(700_000), p.TotalCost)
	// (30 - tax 2) * 7000
	assert.Equal(t, int64(196_000), p.TotalProfitAfterTax)
	assert.InDelta(t, 28.0, p.TotalROI, 1e-9)
	assert.InDelta(t, 70.0, p.BudgetUtilizationPercent, 1e-9)
}

func TestBuildPortfolio_LimitedRecomputesForRemainingBudget(t *testing.T) {
	first := candidate(1, 1_200, 1_000, model.Limited(70), 70, 5_000)
	second := candidate(2, 1_200, 1_000, model.Limited(50), 50, 5_000)
	p := BuildPortfolio([]model.Candidate{first, second}, 100_000)

	require.Len(t, p.Selections, 2)
	assert.Equal(t, int64(70), p.Selections[0].Quantity)
	assert.Equal(t, int64(30), p.Selections[1].Quantity)
	assert.Equal(t, int64(30_000), p.Selections[1].TotalCost)
	assert.Equal(t, int64((200-24)*30), p.Selections[1].ProfitAfterTax)
	assert.Equal(t, int64(100_000), p.TotalCost)
	assert.InDelta(t, 100.0, p.BudgetUtilizationPercent, 1e-9)
}

func TestBuildPortfolio_SkipsZeroQuantity(t *testing.T) {
	pricey := candidate(1, 60_000, 50_000, model.Limited(5), 5, 5_000)
	thin := candidate(2, 130, 100, model.Unlimited(), 0, 4) // floor(4*0.2) = 0
	cheap := candidate(3, 130, 100, model.Limited(10), 10, 5_000)
	p := BuildPortfolio([]model.Candidate{pricey, thin, cheap}, 10_000)

	require.Len(t, p.Selections, 1)
	assert.Equal(t, 3, p.Selections[0].ItemID)
}

func TestBuildPortfolio_NonPositiveBudget(t *testing.T) {
	cands := []model.Candidate{candidate(1, 130, 100, model.Limited(10), 10, 5_000)}
	for _, b := range []int64{0, -10} {
		p := BuildPortfolio(cands, b)
		assert.Empty(t, p.Selections)
		assert.Equal(t, int64(0), p.TotalCost)
		assert.Equal(t, 0.0, p.BudgetUtilizationPercent)
	}
}

func TestBuildPortfolio_SlotAndBudgetInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		var cands []model.Candidate
		for i := 0; i < 5+rng.Intn(20); i++ {
			low := 1 + rng.Int63n(2_000_000)
			high := low + 1 + rng.Int63n(low/5+1)
			limit := model.Unlimited()
			if rng.Intn(3) > 0 {
				limit = model.Limited(1 + rng.Int63n(20_000))
			}
			volume := rng.Int63n(500_000)
			qty := calculator.SizeQuantity(500_000_000, float64(low), limit, volume, 1)
			cands = append(cands, candidate(i, high, low, limit, qty, volume))
		}
		budget := rng.Int63n(500_000_000)
		p := BuildPortfolio(cands, budget)

		assert.LessOrEqual(t, len(p.Selections), MaxPositions)
		assert.LessOrEqual(t, p.TotalCost, budget)
		for _, s := range p.Selections {
			assert.Greater(t, s.TotalCost, int64(0))
			if !s.Limit.IsUnlimited() {
				assert.LessOrEqual(t, s.Quantity, s.Limit.Cap())
			}
		}
	}
}
