// Package oracle is the intelligent allocation path: an LLM proposes the
// budget split instead of the deterministic bandit math. The optimization
// loop treats it as interchangeable with the allocator and falls back to the
// proportional path whenever the oracle refuses or returns garbage.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adveralabs/adpilot/internal/allocator"
	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/domain"
)

// Oracle proposes a budget allocation for a request. Implementations must
// return an error rather than a partial response when the model output
// cannot be validated.
type Oracle interface {
	Allocate(ctx context.Context, req allocator.Request) (*allocator.Response, error)
}

// FromConfig selects the configured oracle backend, or nil when the
// intelligent path is disabled.
func FromConfig(cfg config.LLMConfig) (Oracle, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIOracle(cfg), nil
	case "bedrock":
		return NewBedrockOracle(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

const systemPrompt = `You are an expert ad budget optimization agent. Your task is to allocate budgets across campaigns and ad sets (arms) to maximize business outcomes.

Key principles:
1. Balance exploration (trying new opportunities) with exploitation (scaling winners)
2. Consider statistical confidence - low conversion volume arms need exploration bonus
3. Optimize for business-level metrics (profit, LTV) not just platform metrics (ROAS)
4. Respect constraints: the max budget change ratio and minimum spend thresholds
5. Provide clear reasoning for each allocation decision

Respond with a single JSON object and nothing else, using this schema:
{
  "allocations": [
    {"arm_id": "...", "platform": "social|search", "new_budget": 0.0, "reason": "..."}
  ],
  "recommendations": ["..."]
}
The sum of new_budget values must not exceed the total budget.`

// buildUserPrompt renders the allocation request for the model.
func buildUserPrompt(req allocator.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Allocate a total daily budget of %.2f across %d arms.\n", req.TotalBudget, len(req.Arms))
	fmt.Fprintf(&b, "Optimization goal: %s. Min conversions threshold: %d. Max change ratio: %.2f.\n\n", req.Goal, req.MinConversions, req.MaxChangeRatio)
	b.WriteString("Arms:\n")
	for _, arm := range req.Arms {
		fmt.Fprintf(&b, "- id=%s platform=%s campaign=%q spend=%.2f revenue=%.2f conversions=%d clicks=%d impressions=%d current_budget=%.2f",
			arm.ID, arm.Platform, arm.CampaignName, arm.Spend, arm.Revenue, arm.Conversions, arm.Clicks, arm.Impressions, arm.CurrentBudget())
		if arm.LTV != nil {
			fmt.Fprintf(&b, " ltv=%.2f", *arm.LTV)
		}
		if arm.ProfitMargin != nil {
			fmt.Fprintf(&b, " profit_margin=%.2f", *arm.ProfitMargin)
		}
		if arm.InventoryStatus != "" {
			fmt.Fprintf(&b, " inventory=%s", arm.InventoryStatus)
		}
		if arm.AudienceQualityScore != nil {
			fmt.Fprintf(&b, " audience_quality=%.2f", *arm.AudienceQualityScore)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type oracleAllocation struct {
	ArmID     string  `json:"arm_id"`
	Platform  string  `json:"platform"`
	NewBudget float64 `json:"new_budget"`
	Reason    string  `json:"reason"`
}

type oracleReply struct {
	Allocations     []oracleAllocation `json:"allocations"`
	Recommendations []string           `json:"recommendations"`
}

// parseReply validates model output against the request. Every arm must get
// exactly one allocation and the total must stay within budget; anything
// else is an error so the caller falls back to the deterministic path.
func parseReply(text string, req allocator.Request) (*allocator.Response, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var reply oracleReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return nil, fmt.Errorf("parsing model output: %w", err)
	}
	if len(reply.Allocations) == 0 {
		return nil, fmt.Errorf("model output has no allocations")
	}

	byID := make(map[string]domain.Arm, len(req.Arms))
	for _, arm := range req.Arms {
		byID[arm.ID] = arm
	}

	seen := make(map[string]bool, len(reply.Allocations))
	allocations := make([]allocator.Allocation, 0, len(reply.Allocations))
	total := 0.0
	for _, a := range reply.Allocations {
		arm, ok := byID[a.ArmID]
		if !ok {
			return nil, fmt.Errorf("model allocated unknown arm %q", a.ArmID)
		}
		if seen[a.ArmID] {
			return nil, fmt.Errorf("model allocated arm %q twice", a.ArmID)
		}
		seen[a.ArmID] = true
		if a.NewBudget < 0 {
			return nil, fmt.Errorf("model allocated negative budget to arm %q", a.ArmID)
		}

		current := arm.CurrentBudget()
		changePct := 0.0
		if current > 0 {
			changePct = (a.NewBudget - current) / current * 100
		}
		allocations = append(allocations, allocator.Allocation{
			ArmID:            arm.ID,
			Platform:         arm.Platform,
			CurrentBudget:    current,
			NewBudget:        a.NewBudget,
			ChangePercentage: changePct,
			Reason:           a.Reason,
		})
		total += a.NewBudget
	}

	if len(seen) != len(req.Arms) {
		return nil, fmt.Errorf("model allocated %d of %d arms", len(seen), len(req.Arms))
	}
	if total > req.TotalBudget*1.001 {
		return nil, fmt.Errorf("model allocated %.2f over budget %.2f", total, req.TotalBudget)
	}

	return &allocator.Response{
		Allocations:    allocations,
		TotalAllocated: total,
		ExpectedImprovement: map[string]string{
			"method": "intelligent",
		},
		Recommendations: reply.Recommendations,
	}, nil
}

// extractJSON pulls the first top-level JSON object out of model text,
// tolerating markdown fences and prose around it.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
