package allocator

import (
	"fmt"
	"math"

	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/adveralabs/adpilot/internal/scoring"
)

// Proportional is the deterministic fallback path: budget shares follow
// allocation scores, and per-arm movement is clamped to MaxChangeRatio of the
// current budget. This is the only path that clamps.
func (al *Allocator) Proportional(req Request) *Response {
	scores := make(map[string]float64, len(req.Arms))
	totalScore := 0.0
	for _, arm := range req.Arms {
		s := scoring.Score(arm, req.Goal, req.MinConversions)
		scores[arm.ID] = s
		totalScore += s
	}

	// Arms with zero delivery would otherwise all carry the exploration
	// floor and then clamp to their zero current budget, starving a brand
	// new account forever. Treat a fully cold set as having no data.
	if totalScore == 0 || allCold(req.Arms) {
		per := req.TotalBudget / float64(len(req.Arms))
		allocations := make([]Allocation, 0, len(req.Arms))
		for _, arm := range req.Arms {
			allocations = append(allocations, Allocation{
				ArmID:         arm.ID,
				Platform:      arm.Platform,
				CurrentBudget: arm.CurrentBudget(),
				NewBudget:     per,
				Reason:        "equal allocation (no performance data)",
			})
		}
		return &Response{
			Allocations:         allocations,
			TotalAllocated:      req.TotalBudget,
			ExpectedImprovement: proportionalImprovement(),
			Recommendations: []string{
				"no performance data yet; budget split equally across arms",
			},
		}
	}

	allocations := make([]Allocation, 0, len(req.Arms))
	total := 0.0
	for _, arm := range req.Arms {
		share := scores[arm.ID] / totalScore
		newBudget := req.TotalBudget * share
		current := arm.CurrentBudget()

		maxChange := current * req.MaxChangeRatio
		if math.Abs(newBudget-current) > maxChange {
			if newBudget > current {
				newBudget = current + maxChange
			} else {
				newBudget = math.Max(0, current-maxChange)
			}
		}

		changePct := 0.0
		if current > 0 {
			changePct = (newBudget - current) / current * 100
		}

		allocations = append(allocations, Allocation{
			ArmID:            arm.ID,
			Platform:         arm.Platform,
			CurrentBudget:    current,
			NewBudget:        newBudget,
			ChangePercentage: changePct,
			Score:            scores[arm.ID],
			Reason:           proportionalReason(arm, req, share),
		})
		total += newBudget
	}

	return &Response{
		Allocations:         allocations,
		TotalAllocated:      total,
		ExpectedImprovement: proportionalImprovement(),
		Recommendations: []string{
			"review arms flagged for exploration before scaling budgets",
			"monitor performance for 3-5 days before the next optimization",
		},
	}
}

func allCold(arms []domain.Arm) bool {
	for _, arm := range arms {
		if arm.Spend > 0 || arm.Revenue > 0 || arm.Conversions > 0 || arm.Impressions > 0 {
			return false
		}
	}
	return true
}

func proportionalReason(arm domain.Arm, req Request, share float64) string {
	switch {
	case arm.Conversions < req.MinConversions:
		return fmt.Sprintf("exploration allocation (%.1f%%) - low conversion volume", share*100)
	case req.Goal == domain.GoalProfit && arm.ProfitMargin != nil:
		return fmt.Sprintf("profit-optimized allocation (%.1f%%) - profit ROAS: %.2f", share*100, arm.ProfitROAS())
	case req.Goal == domain.GoalLTV && arm.LTV != nil:
		return fmt.Sprintf("ltv-optimized allocation (%.1f%%) - LTV ROAS: %.2f", share*100, arm.LTVROAS())
	default:
		return fmt.Sprintf("roas-based allocation (%.1f%%) - ROAS: %.2f", share*100, arm.ROAS())
	}
}

func proportionalImprovement() map[string]string {
	return map[string]string{
		"estimated_roas_improvement": "5-15%",
		"confidence":                 "medium",
		"method":                     "score_proportional",
	}
}
