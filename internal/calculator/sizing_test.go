package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlipSentinel/internal/model"
)

func TestSufficientVolume_Tiers(t *testing.T) {
	assert.True(t, SufficientVolume(1200, 1_000_000))
	assert.False(t, SufficientVolume(1199, 1_000_000))
	assert.True(t, SufficientVolume(50, 1_000_001))
	assert.False(t, SufficientVolume(49, 5_000_000))
}

func TestSizeQuantity_Constraints(t *testing.T) {
	tests := []struct {
		name     string
		budget   int64
		price    float64
		limit    model.PositionLimit
		volume   int64
		fraction float64
		want     int64
	}{
		{"limit binds", 10_000, 100, model.Limited(50), 2_000, 1, 50},
		{"budget binds", 10_000, 100, model.Limited(500), 20_000, 1, 100},
		{"volume binds", 1_000_000, 10, model.Unlimited(), 2_000, 1, 200},
		{"tiny volume floors at one", 1_000_000, 10, model.Unlimited(), 5, 1, 1},
		{"zero volume is unbounded", 1_000, 10, model.Unlimited(), 0, 1, 100},
		{"fraction binds", 10_000, 100, model.Unlimited(), 0, 0.25, 25},
		{"bad fraction treated as whole budget", 10_000, 100, model.Unlimited(), 0, 3, 100},
		{"price above budget", 99, 100, model.Unlimited(), 0, 1, 0},
		{"zero price", 1_000, 0, model.Unlimited(), 0, 1, 0},
		{"non-positive budget", 0, 10, model.Unlimited(), 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SizeQuantity(tt.budget, tt.price, tt.limit, tt.volume, tt.fraction)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSizeQuantity_NeverExceedsFiniteLimit(t *testing.T) {
	for limit := int64(1); limit < 100_000; limit *= 7 {
		for budget := int64(1); budget < 1_000_000_000; budget *= 13 {
			q := SizeQuantity(budget, 3, model.Limited(limit), 0, 1)
			assert.LessOrEqual(t, q, limit)
			assert.LessOrEqual(t, float64(q)*3, float64(budget))
		}
	}
}

func TestPositionLimitFromRaw(t *testing.T) {
	assert.True(t, model.PositionLimitFromRaw(0).IsUnlimited())
	assert.True(t, model.PositionLimitFromRaw(-4).IsUnlimited())
	assert.Equal(t, model.UnboundedQuantity, model.PositionLimitFromRaw(0).Cap())
	assert.Equal(t, int64(70), model.PositionLimitFromRaw(70).Cap())
	assert.Equal(t, int64(0), model.Unlimited().Raw())
}
