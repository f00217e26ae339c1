// Package scoring computes allocation scores for arms. All functions are
// pure: the same arm, goal, and threshold always produce the same score.
package scoring

import (
	"math"

	"github.com/adveralabs/adpilot/internal/domain"
)

// Exploration bonuses for arms below the conversion threshold. Arms that at
// least serve impressions score slightly higher than arms with no delivery.
const (
	ExplorationBonusActive = 1.5
	ExplorationBonusIdle   = 1.0
)

// Score rates an arm for budget allocation under the given goal. Arms with
// fewer than minConversions conversions receive a flat exploration bonus so
// under-sampled arms always keep a budget floor; all other rules are skipped
// for them. The result is never negative.
func Score(arm domain.Arm, goal domain.Goal, minConversions int) float64 {
	if arm.Conversions < minConversions {
		if arm.Impressions > 0 {
			return ExplorationBonusActive
		}
		return ExplorationBonusIdle
	}

	var base float64
	switch goal {
	case domain.GoalProfit:
		if arm.ProfitMargin != nil {
			base = arm.ProfitROAS()
		} else {
			base = arm.ROAS() * 0.8
		}
	case domain.GoalLTV:
		if arm.LTV != nil {
			base = arm.LTVROAS()
		} else {
			base = arm.ROAS() * 1.2
		}
	case domain.GoalCPA:
		cpa := arm.CPA()
		if cpa > 0 && !math.IsInf(cpa, 1) {
			base = 1 / cpa
		}
	default:
		base = arm.ROAS()
	}

	switch arm.InventoryStatus {
	case domain.InventoryOutOfStock:
		base *= 0.1
	case domain.InventoryLowStock:
		base *= 0.7
	}
	if arm.AudienceQualityScore != nil {
		base *= 0.5 + *arm.AudienceQualityScore
	}

	return math.Max(base, 0)
}

// Reward computes the bandit reward observed for an arm under a goal. Unlike
// Score it applies no exploration floor or modifiers; it is the raw signal
// fed into the allocator's performance tracking.
func Reward(arm domain.Arm, goal domain.Goal) float64 {
	switch goal {
	case domain.GoalProfit:
		return arm.ProfitROAS()
	case domain.GoalLTV:
		return arm.LTVROAS()
	case domain.GoalCPA:
		cpa := arm.CPA()
		if cpa > 0 && !math.IsInf(cpa, 1) {
			return 1 / cpa
		}
		return 0
	default:
		return arm.ROAS()
	}
}
