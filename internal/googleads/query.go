package googleads

import (
	"fmt"
	"strings"

	"github.com/adveralabs/adpilot/internal/domain"
)

// gaqlPresets maps shared window presets to GAQL date constants.
var gaqlPresets = map[string]string{
	domain.WindowYesterday: "YESTERDAY",
	domain.WindowLast7d:    "LAST_7_DAYS",
	domain.WindowLast30d:   "LAST_30_DAYS",
}

// BuildCampaignQuery builds the GAQL query for campaign insights over a time
// window, optionally narrowed to one campaign.
func BuildCampaignQuery(window domain.TimeWindow, campaignID string) string {
	var b strings.Builder
	b.WriteString("SELECT campaign.id, campaign.name, campaign.campaign_budget, ")
	b.WriteString("metrics.impressions, metrics.clicks, metrics.cost_micros, ")
	b.WriteString("metrics.conversions, metrics.conversions_value, segments.date ")
	b.WriteString("FROM campaign WHERE ")

	if window.IsPreset() {
		preset, ok := gaqlPresets[window.Preset]
		if !ok {
			preset = "YESTERDAY"
		}
		fmt.Fprintf(&b, "segments.date DURING %s", preset)
	} else {
		fmt.Fprintf(&b, "segments.date BETWEEN '%s' AND '%s'",
			window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	}

	if campaignID != "" {
		fmt.Fprintf(&b, " AND campaign.id = %s", campaignID)
	}
	return b.String()
}
