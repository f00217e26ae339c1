// Package audit is the rule engine that inspects arms and platform
// configuration for tracking and setup problems, scoring overall account
// health on a 0-100 scale.
package audit

import (
	"fmt"

	"github.com/adveralabs/adpilot/internal/domain"
)

// Severity orders issues for triage.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Health score deductions per severity.
const (
	criticalPenalty = 20
	highPenalty     = 10
	mediumPenalty   = 5
)

// TrackingIssue flags a conversion-tracking problem on specific arms.
type TrackingIssue struct {
	IssueType       string   `json:"issue_type"`
	Severity        Severity `json:"severity"`
	Description     string   `json:"description"`
	AffectedArms    []string `json:"affected_arms"`
	Recommendation  string   `json:"recommendation"`
	EstimatedImpact string   `json:"estimated_impact,omitempty"`
}

// ConfigurationIssue flags a platform or campaign setup problem.
type ConfigurationIssue struct {
	IssueType       string          `json:"issue_type"`
	Severity        Severity        `json:"severity"`
	Description     string          `json:"description"`
	Platform        domain.Platform `json:"platform,omitempty"`
	Recommendation  string          `json:"recommendation"`
	EstimatedImpact string          `json:"estimated_impact,omitempty"`
}

// PlatformConfig carries the per-platform settings the audit inspects.
type PlatformConfig struct {
	ConversionsAPIEnabled      bool `json:"conversions_api_enabled"`
	EnhancedConversionsEnabled bool `json:"enhanced_conversions_enabled"`
}

// Request is one audit invocation.
type Request struct {
	Arms            []domain.Arm                       `json:"arms"`
	AccountID       string                             `json:"account_id"`
	TimeWindow      domain.TimeWindow                  `json:"time_window"`
	Goal            domain.Goal                        `json:"optimization_goal"`
	PlatformConfigs map[domain.Platform]PlatformConfig `json:"platform_configs,omitempty"`
}

// Report is the audit result.
type Report struct {
	TrackingIssues      []TrackingIssue      `json:"tracking_issues"`
	ConfigurationIssues []ConfigurationIssue `json:"configuration_issues"`
	OverallHealthScore  float64              `json:"overall_health_score"`
	CriticalIssuesCount int                  `json:"critical_issues_count"`
	Recommendations     []string             `json:"recommendations"`
	EstimatedROIImpact  string               `json:"estimated_roi_impact,omitempty"`
}

// Run applies the rule set in a fixed order so output is deterministic:
// per-arm tracking rules, per-arm configuration rules, then per-account
// platform checks.
func Run(req Request) *Report {
	var tracking []TrackingIssue
	var configs []ConfigurationIssue

	for _, arm := range req.Arms {
		if arm.Spend > 0 && arm.Conversions == 0 {
			tracking = append(tracking, TrackingIssue{
				IssueType:       "missing_conversions",
				Severity:        SeverityCritical,
				Description:     fmt.Sprintf("Arm %s has $%.2f spend but zero conversions", arm.ID, arm.Spend),
				AffectedArms:    []string{arm.ID},
				Recommendation:  "Check conversion tracking setup, verify pixels are firing",
				EstimatedImpact: "High - Smart Bidding cannot optimize without conversion data",
			})
		}
		if arm.Conversions > 0 && arm.Conversions < 10 && arm.Spend > 100 {
			tracking = append(tracking, TrackingIssue{
				IssueType:       "low_conversion_volume",
				Severity:        SeverityHigh,
				Description:     fmt.Sprintf("Arm %s has only %d conversions with $%.2f spend", arm.ID, arm.Conversions, arm.Spend),
				AffectedArms:    []string{arm.ID},
				Recommendation:  "Increase conversion volume or extend time window for data collection",
				EstimatedImpact: "Medium - Smart Bidding needs more data for reliable optimization",
			})
		}
		if arm.ROAS() < 0.5 && arm.Spend > 500 {
			configs = append(configs, ConfigurationIssue{
				IssueType:       "negative_roas",
				Severity:        SeverityHigh,
				Description:     fmt.Sprintf("Arm %s has ROAS of %.2f (spending $%.2f)", arm.ID, arm.ROAS(), arm.Spend),
				Platform:        arm.Platform,
				Recommendation:  "Review campaign targeting, creatives, or consider pausing",
				EstimatedImpact: "High - Wasting ad spend",
			})
		}
		if req.Goal == domain.GoalLTV && arm.LTV == nil {
			configs = append(configs, ConfigurationIssue{
				IssueType:       "missing_ltv_data",
				Severity:        SeverityMedium,
				Description:     fmt.Sprintf("Arm %s missing LTV data but optimizing for LTV", arm.ID),
				Platform:        arm.Platform,
				Recommendation:  "Set up LTV tracking or switch optimization goal to ROAS",
				EstimatedImpact: "Medium - Cannot optimize for LTV without LTV data",
			})
		}
		if req.Goal == domain.GoalProfit && arm.ProfitMargin == nil {
			configs = append(configs, ConfigurationIssue{
				IssueType:       "missing_profit_margin",
				Severity:        SeverityMedium,
				Description:     fmt.Sprintf("Arm %s missing profit margin but optimizing for profit", arm.ID),
				Platform:        arm.Platform,
				Recommendation:  "Add profit margin data or switch optimization goal to ROAS",
				EstimatedImpact: "Medium - Cannot optimize for profit without margin data",
			})
		}
		if arm.InventoryStatus == domain.InventoryOutOfStock && arm.Spend > 0 {
			configs = append(configs, ConfigurationIssue{
				IssueType:       "out_of_stock_campaign",
				Severity:        SeverityHigh,
				Description:     fmt.Sprintf("Arm %s is out of stock but still spending", arm.ID),
				Platform:        arm.Platform,
				Recommendation:  "Pause campaign or update inventory status",
				EstimatedImpact: "High - Wasting spend on unavailable products",
			})
		}
	}

	if req.PlatformConfigs != nil {
		if !req.PlatformConfigs[domain.PlatformSocial].ConversionsAPIEnabled {
			configs = append(configs, ConfigurationIssue{
				IssueType:       "missing_capi",
				Severity:        SeverityHigh,
				Description:     "Social platform Conversions API not enabled",
				Platform:        domain.PlatformSocial,
				Recommendation:  "Set up the Conversions API for better tracking and optimization",
				EstimatedImpact: "High - Better conversion tracking improves Smart Bidding",
			})
		}
		if !req.PlatformConfigs[domain.PlatformSearch].EnhancedConversionsEnabled {
			configs = append(configs, ConfigurationIssue{
				IssueType:       "missing_enhanced_conversions",
				Severity:        SeverityHigh,
				Description:     "Search platform enhanced conversions not enabled",
				Platform:        domain.PlatformSearch,
				Recommendation:  "Enable enhanced conversions for better conversion matching",
				EstimatedImpact: "High - Better conversion matching improves Smart Bidding",
			})
		}
	}

	critical, high, medium := 0, 0, 0
	count := func(s Severity) {
		switch s {
		case SeverityCritical:
			critical++
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}
	for _, issue := range tracking {
		count(issue.Severity)
	}
	for _, issue := range configs {
		count(issue.Severity)
	}

	score := 100 - criticalPenalty*critical - highPenalty*high - mediumPenalty*medium
	if score < 0 {
		score = 0
	}

	var recommendations []string
	if critical > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Fix %d critical issue(s) immediately", critical))
	}
	if high > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Address %d high-priority issue(s)", high))
	}
	if req.PlatformConfigs == nil || !req.PlatformConfigs[domain.PlatformSocial].ConversionsAPIEnabled {
		recommendations = append(recommendations, "Set up the social platform Conversions API for better tracking")
	}
	if req.PlatformConfigs == nil || !req.PlatformConfigs[domain.PlatformSearch].EnhancedConversionsEnabled {
		recommendations = append(recommendations, "Enable search platform enhanced conversions")
	}

	return &Report{
		TrackingIssues:      tracking,
		ConfigurationIssues: configs,
		OverallHealthScore:  float64(score),
		CriticalIssuesCount: critical,
		Recommendations:     recommendations,
		EstimatedROIImpact:  "Fixing issues could improve ROI by 10-30%",
	}
}
