package domain

import (
	"fmt"
	"math"
)

// Platform identifies an ad-delivery platform.
type Platform string

const (
	PlatformSocial Platform = "social"
	PlatformSearch Platform = "search"
)

// Goal is the optimization goal used for scoring and bandit rewards.
type Goal string

const (
	GoalROAS   Goal = "roas"
	GoalProfit Goal = "profit"
	GoalLTV    Goal = "ltv"
	GoalCPA    Goal = "cpa"
)

// Strategy selects the budget allocation policy.
type Strategy string

const (
	StrategyEpsilonGreedy Strategy = "epsilon_greedy"
	StrategyUCB           Strategy = "ucb"
	StrategyThompson      Strategy = "thompson_sampling"
	StrategyAdaptive      Strategy = "adaptive"
	StrategyIntelligent   Strategy = "intelligent"
	StrategyProportional  Strategy = "proportional"
)

// InventoryStatus reflects product availability for e-commerce campaigns.
type InventoryStatus string

const (
	InventoryInStock    InventoryStatus = "in_stock"
	InventoryLowStock   InventoryStatus = "low_stock"
	InventoryOutOfStock InventoryStatus = "out_of_stock"
)

// DefaultProfitMargin is assumed when an arm carries no margin overlay.
const DefaultProfitMargin = 0.2

// Arm is the unit of optimization: one campaign or adset on one platform,
// with raw counters from the platform and optional business overlays.
// An Arm is immutable within a single allocation cycle.
type Arm struct {
	Platform     Platform `json:"platform"`
	ID           string   `json:"id"`
	CampaignID   string   `json:"campaign_id,omitempty"`
	CampaignName string   `json:"campaign_name,omitempty"`
	Date         string   `json:"date,omitempty"`

	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	Conversions int     `json:"conversions"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`

	// Business overlays. Nil means unknown, not zero.
	LTV                  *float64        `json:"ltv,omitempty"`
	ProfitMargin         *float64        `json:"profit_margin,omitempty"`
	InventoryStatus      InventoryStatus `json:"inventory_status,omitempty"`
	AudienceQualityScore *float64        `json:"audience_quality_score,omitempty"`
	DaysActive           *int            `json:"days_active,omitempty"`
	CurrentDailyBudget   *float64        `json:"current_daily_budget,omitempty"`
}

// ROAS is revenue over spend, zero when nothing was spent.
func (a Arm) ROAS() float64 {
	if a.Spend <= 0 {
		return 0
	}
	return a.Revenue / a.Spend
}

// CPA is spend per conversion, +Inf when there are no conversions.
func (a Arm) CPA() float64 {
	if a.Conversions <= 0 {
		return math.Inf(1)
	}
	return a.Spend / float64(a.Conversions)
}

// CTR is the click-through rate in percent.
func (a Arm) CTR() float64 {
	if a.Impressions <= 0 {
		return 0
	}
	return float64(a.Clicks) / float64(a.Impressions) * 100
}

// Profit is revenue scaled by margin minus spend. Arms without a margin
// overlay assume DefaultProfitMargin.
func (a Arm) Profit() float64 {
	margin := DefaultProfitMargin
	if a.ProfitMargin != nil {
		margin = *a.ProfitMargin
	}
	return a.Revenue*margin - a.Spend
}

// ProfitROAS is profit over spend, zero when nothing was spent.
func (a Arm) ProfitROAS() float64 {
	if a.Spend <= 0 {
		return 0
	}
	return a.Profit() / a.Spend
}

// LTVROAS is total lifetime value over spend. It falls back to plain ROAS
// when the arm has no LTV overlay or no conversions.
func (a Arm) LTVROAS() float64 {
	if a.LTV != nil && a.Conversions > 0 {
		if a.Spend <= 0 {
			return 0
		}
		return *a.LTV * float64(a.Conversions) / a.Spend
	}
	return a.ROAS()
}

// HasSufficientData reports whether the arm has enough observations for
// reliable optimization.
func (a Arm) HasSufficientData() bool {
	return a.Conversions >= 10 && a.Impressions >= 1000
}

// CurrentBudget returns the arm's daily budget, defaulting to its spend
// when the platform did not report one.
func (a Arm) CurrentBudget() float64 {
	if a.CurrentDailyBudget != nil {
		return *a.CurrentDailyBudget
	}
	return a.Spend
}

// Validate checks the arm invariants: non-negative counters and unit-interval
// overlays.
func (a Arm) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("arm: missing id")
	}
	if a.Platform != PlatformSocial && a.Platform != PlatformSearch {
		return fmt.Errorf("arm %s: unknown platform %q", a.ID, a.Platform)
	}
	if a.Spend < 0 || a.Revenue < 0 || a.Conversions < 0 || a.Clicks < 0 || a.Impressions < 0 {
		return fmt.Errorf("arm %s: negative counter", a.ID)
	}
	if a.ProfitMargin != nil && (*a.ProfitMargin < 0 || *a.ProfitMargin > 1) {
		return fmt.Errorf("arm %s: profit_margin %v out of [0,1]", a.ID, *a.ProfitMargin)
	}
	if a.AudienceQualityScore != nil && (*a.AudienceQualityScore < 0 || *a.AudienceQualityScore > 1) {
		return fmt.Errorf("arm %s: audience_quality_score %v out of [0,1]", a.ID, *a.AudienceQualityScore)
	}
	if a.LTV != nil && *a.LTV < 0 {
		return fmt.Errorf("arm %s: negative ltv", a.ID)
	}
	if a.CurrentDailyBudget != nil && *a.CurrentDailyBudget < 0 {
		return fmt.Errorf("arm %s: negative current_daily_budget", a.ID)
	}
	switch a.InventoryStatus {
	case "", InventoryInStock, InventoryLowStock, InventoryOutOfStock:
	default:
		return fmt.Errorf("arm %s: unknown inventory_status %q", a.ID, a.InventoryStatus)
	}
	return nil
}
