package scoring

import (
	"testing"

	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func TestScoreExplorationFloor(t *testing.T) {
	// Under-sampled arm with delivery gets the active bonus.
	arm := domain.Arm{Platform: domain.PlatformSocial, ID: "a", Spend: 200, Revenue: 800, Conversions: 4, Impressions: 2000}
	assert.Equal(t, 1.5, Score(arm, domain.GoalROAS, 10))

	// No impressions at all: idle bonus.
	arm.Impressions = 0
	assert.Equal(t, 1.0, Score(arm, domain.GoalROAS, 10))

	// The floor short-circuits modifiers too.
	arm.Impressions = 2000
	arm.InventoryStatus = domain.InventoryOutOfStock
	assert.Equal(t, 1.5, Score(arm, domain.GoalROAS, 10))
}

func TestScoreGoalBases(t *testing.T) {
	arm := domain.Arm{
		Platform:    domain.PlatformSocial,
		ID:          "a",
		Spend:       100,
		Revenue:     1000,
		Conversions: 20,
		Impressions: 5000,
	}

	assert.InDelta(t, 10.0, Score(arm, domain.GoalROAS, 10), 1e-9)

	// Profit without margin falls back to 0.8*roas.
	assert.InDelta(t, 8.0, Score(arm, domain.GoalProfit, 10), 1e-9)
	arm.ProfitMargin = f64(0.5)
	assert.InDelta(t, 4.0, Score(arm, domain.GoalProfit, 10), 1e-9) // (1000*0.5-100)/100

	// LTV without overlay falls back to 1.2*roas.
	arm.ProfitMargin = nil
	assert.InDelta(t, 12.0, Score(arm, domain.GoalLTV, 10), 1e-9)
	arm.LTV = f64(100)
	assert.InDelta(t, 20.0, Score(arm, domain.GoalLTV, 10), 1e-9) // 100*20/100

	// CPA inverts: 100/20 = 5 per conversion.
	arm.LTV = nil
	assert.InDelta(t, 0.2, Score(arm, domain.GoalCPA, 10), 1e-9)
}

func TestScoreCPAWithoutConversionsIsZero(t *testing.T) {
	arm := domain.Arm{Platform: domain.PlatformSocial, ID: "a", Spend: 500, Impressions: 5000}
	assert.Equal(t, 0.0, Score(arm, domain.GoalCPA, 0))
}

func TestScoreInventoryModifiers(t *testing.T) {
	base := domain.Arm{
		Platform:    domain.PlatformSocial,
		ID:          "a",
		Spend:       100,
		Revenue:     1000,
		Conversions: 20,
		Impressions: 5000,
	}

	out := base
	out.InventoryStatus = domain.InventoryOutOfStock
	assert.InDelta(t, 1.0, Score(out, domain.GoalROAS, 10), 1e-9)

	low := base
	low.InventoryStatus = domain.InventoryLowStock
	assert.InDelta(t, 7.0, Score(low, domain.GoalROAS, 10), 1e-9)

	in := base
	in.InventoryStatus = domain.InventoryInStock
	assert.InDelta(t, 10.0, Score(in, domain.GoalROAS, 10), 1e-9)
}

func TestScoreAudienceQualityMultiplier(t *testing.T) {
	arm := domain.Arm{
		Platform:    domain.PlatformSocial,
		ID:          "a",
		Spend:       100,
		Revenue:     1000,
		Conversions: 20,
		Impressions: 5000,
	}

	arm.AudienceQualityScore = f64(0)
	assert.InDelta(t, 5.0, Score(arm, domain.GoalROAS, 10), 1e-9)

	arm.AudienceQualityScore = f64(1)
	assert.InDelta(t, 15.0, Score(arm, domain.GoalROAS, 10), 1e-9)

	arm.AudienceQualityScore = f64(0.5)
	assert.InDelta(t, 10.0, Score(arm, domain.GoalROAS, 10), 1e-9)
}

func TestScoreMonotoneInRevenue(t *testing.T) {
	arm := domain.Arm{
		Platform:    domain.PlatformSocial,
		ID:          "a",
		Spend:       100,
		Revenue:     500,
		Conversions: 20,
		Impressions: 5000,
	}

	lo := Score(arm, domain.GoalROAS, 10)
	arm.Revenue = 600
	hi := Score(arm, domain.GoalROAS, 10)
	assert.Greater(t, hi, lo)
}

func TestScoreIdempotent(t *testing.T) {
	arm := domain.Arm{
		Platform:    domain.PlatformSearch,
		ID:          "g",
		Spend:       300,
		Revenue:     900,
		Conversions: 30,
		Impressions: 10000,
		AudienceQualityScore: f64(0.8),
	}
	first := Score(arm, domain.GoalROAS, 10)
	second := Score(arm, domain.GoalROAS, 10)
	assert.Equal(t, first, second)
}

func TestRewardPerGoal(t *testing.T) {
	arm := domain.Arm{
		Platform:    domain.PlatformSocial,
		ID:          "a",
		Spend:       100,
		Revenue:     400,
		Conversions: 10,
	}

	assert.InDelta(t, 4.0, Reward(arm, domain.GoalROAS), 1e-9)
	assert.InDelta(t, -0.2, Reward(arm, domain.GoalProfit), 1e-9) // (400*0.2-100)/100
	assert.InDelta(t, 4.0, Reward(arm, domain.GoalLTV), 1e-9)    // falls back to roas
	assert.InDelta(t, 0.1, Reward(arm, domain.GoalCPA), 1e-9)    // 1/(100/10)

	arm.Conversions = 0
	assert.Equal(t, 0.0, Reward(arm, domain.GoalCPA))
}
