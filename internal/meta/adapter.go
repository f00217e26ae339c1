// Package meta integrates the social ad platform (Graph Marketing API):
// insight fetches, adset budget writes, and server-side conversion uploads.
package meta

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/adveralabs/adpilot/internal/pkg/logger"
	"github.com/adveralabs/adpilot/internal/platform"
)

// conversionActionTypes are the action types counted as conversions.
var conversionActionTypes = map[string]bool{
	"purchase":              true,
	"lead":                  true,
	"complete_registration": true,
}

// Adapter exposes the social platform through the shared adapter contract.
type Adapter struct {
	client *Client
}

// NewAdapter creates the social platform adapter.
func NewAdapter(cfg config.MetaConfig) *Adapter {
	return &Adapter{client: NewClient(cfg)}
}

// Platform identifies this adapter.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformSocial }

// FetchInsights pulls insight rows and normalizes them into Arms. Rows
// missing a campaign id are skipped and logged, never fatal.
func (a *Adapter) FetchInsights(ctx context.Context, accountRef string, window domain.TimeWindow, level domain.Level) ([]domain.Arm, error) {
	query := InsightsQuery{Level: string(level), TimeIncrement: 1}
	if window.IsPreset() {
		query.DatePreset = window.Preset
	} else {
		query.TimeRange = &TimeRange{
			Since: window.Start.Format("2006-01-02"),
			Until: window.End.Format("2006-01-02"),
		}
	}

	insights, status, err := a.client.GetInsights(ctx, accountRef, query)
	if err != nil {
		return nil, platform.NewError(domain.PlatformSocial, "fetch insights", platform.KindFromStatus(status), err)
	}

	arms := make([]domain.Arm, 0, len(insights))
	for _, insight := range insights {
		arm, err := normalizeInsight(insight)
		if err != nil {
			logger.Warn("skipping malformed insight row",
				"platform", "social",
				"account", accountRef,
				"error", err.Error())
			continue
		}
		arms = append(arms, arm)
	}
	return arms, nil
}

// UpdateBudget writes a daily budget, in whole currency units, to the adset
// behind armID.
func (a *Adapter) UpdateBudget(ctx context.Context, armID string, dailyBudget float64) error {
	status, err := a.client.UpdateAdsetBudget(ctx, armID, dailyBudget)
	if err != nil {
		return platform.NewError(domain.PlatformSocial, "update budget", platform.KindFromStatus(status), err)
	}
	logger.Info("adset budget updated",
		"platform", "social",
		"adset_id", armID,
		"daily_budget", fmt.Sprintf("%.2f", dailyBudget))
	return nil
}

// UploadConversion sends one conversion signal to the pixel named by
// destination.
func (a *Adapter) UploadConversion(ctx context.Context, destination string, conv platform.Conversion) error {
	custom := map[string]any{
		"value":    conv.Value,
		"currency": conv.Currency,
	}
	for k, v := range conv.CustomData {
		if k == "value" || k == "currency" {
			continue
		}
		custom[k] = v
	}

	event := CAPIEvent{
		EventName:  conv.EventName,
		EventID:    conv.EventID,
		EventTime:  conv.Timestamp.Unix(),
		UserData:   conv.UserData,
		CustomData: custom,
	}

	status, err := a.client.SendConversionEvent(ctx, destination, event)
	if err != nil {
		return platform.NewError(domain.PlatformSocial, "upload conversion", platform.KindFromStatus(status), err)
	}
	return nil
}

// normalizeInsight converts one raw insight row into an Arm. The Graph API
// ships numbers as strings; missing counters become zero.
func normalizeInsight(insight Insight) (domain.Arm, error) {
	if insight.CampaignID == "" {
		return domain.Arm{}, fmt.Errorf("insight row missing campaign_id")
	}

	id := insight.AdsetID
	if id == "" {
		id = insight.CampaignID
	}

	conversions := 0
	for _, action := range insight.Actions {
		if conversionActionTypes[action.ActionType] {
			conversions += atoiLoose(action.Value)
		}
	}

	revenue := 0.0
	for _, av := range insight.ActionValues {
		if av.ActionType == "purchase" {
			revenue += parseFloatLoose(av.Value)
		}
	}

	return domain.Arm{
		Platform:     domain.PlatformSocial,
		ID:           id,
		CampaignID:   insight.CampaignID,
		CampaignName: insight.CampaignName,
		Date:         insight.DateStart,
		Spend:        parseFloatLoose(insight.Spend),
		Revenue:      revenue,
		Conversions:  conversions,
		Clicks:       int64(atoiLoose(insight.Clicks)),
		Impressions:  int64(atoiLoose(insight.Impressions)),
	}, nil
}

func atoiLoose(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func parseFloatLoose(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
