// Package googleads integrates the search ad platform (Google Ads REST API):
// GAQL insight queries, campaign budget mutates, and offline click
// conversion uploads.
package googleads

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/adveralabs/adpilot/internal/pkg/logger"
	"github.com/adveralabs/adpilot/internal/platform"
)

// Adapter exposes the search platform through the shared adapter contract.
//
// Budget writes go to a campaign's budget resource, not the campaign itself.
// The mapping from campaign id to budget resource is learned during insight
// fetches; a write for an unmapped campaign is reported as pending rather
// than guessed.
type Adapter struct {
	client *Client

	mu      sync.RWMutex
	budgets map[string]budgetRef
}

type budgetRef struct {
	customerID string
	resource   string
}

// NewAdapter creates the search platform adapter.
func NewAdapter(cfg config.GoogleAdsConfig) *Adapter {
	return &Adapter{
		client:  NewClient(cfg),
		budgets: make(map[string]budgetRef),
	}
}

// Platform identifies this adapter.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformSearch }

// FetchInsights runs the campaign GAQL query and normalizes result rows into
// Arms. Budget resource names seen in the results are remembered for later
// UpdateBudget calls.
func (a *Adapter) FetchInsights(ctx context.Context, accountRef string, window domain.TimeWindow, level domain.Level) ([]domain.Arm, error) {
	// The search platform reports campaigns; finer levels collapse to the
	// campaign query.
	query := BuildCampaignQuery(window, "")

	results, status, err := a.client.SearchStream(ctx, accountRef, query)
	if err != nil {
		return nil, platform.NewError(domain.PlatformSearch, "fetch insights", platform.KindFromStatus(status), err)
	}

	arms := make([]domain.Arm, 0, len(results))
	for _, result := range results {
		arm, err := a.normalizeResult(accountRef, result)
		if err != nil {
			logger.Warn("skipping malformed search result row",
				"platform", "search",
				"customer_id", accountRef,
				"error", err.Error())
			continue
		}
		arms = append(arms, arm)
	}
	return arms, nil
}

// UpdateBudget mutates the campaign budget behind armID. Without a learned
// budget mapping the write is pending, never guessed.
func (a *Adapter) UpdateBudget(ctx context.Context, armID string, dailyBudget float64) error {
	a.mu.RLock()
	ref, ok := a.budgets[armID]
	a.mu.RUnlock()
	if !ok {
		return platform.NewError(domain.PlatformSearch, "update budget", platform.KindPending,
			fmt.Errorf("no budget mapping for campaign %s", armID))
	}

	status, err := a.client.UpdateCampaignBudget(ctx, ref.customerID, ref.resource, dailyBudget)
	if err != nil {
		return platform.NewError(domain.PlatformSearch, "update budget", platform.KindFromStatus(status), err)
	}
	logger.Info("campaign budget updated",
		"platform", "search",
		"campaign_id", armID,
		"daily_budget", fmt.Sprintf("%.2f", dailyBudget))
	return nil
}

// UploadConversion sends one offline click conversion. The destination is
// the customer id; the conversion action and click id ride on the signal.
func (a *Adapter) UploadConversion(ctx context.Context, destination string, conv platform.Conversion) error {
	if conv.GCLID == "" {
		return platform.NewError(domain.PlatformSearch, "upload conversion", platform.KindMalformed,
			fmt.Errorf("conversion %s has no gclid", conv.EventID))
	}

	action := conv.ConversionActionID
	if !strings.HasPrefix(action, "customers/") {
		action = fmt.Sprintf("customers/%s/conversionActions/%s", destination, action)
	}

	cc := ClickConversion{
		GCLID:              conv.GCLID,
		ConversionAction:   action,
		ConversionDateTime: conv.Timestamp.Format("2006-01-02 15:04:05-07:00"),
		ConversionValue:    conv.Value,
		CurrencyCode:       conv.Currency,
	}

	status, err := a.client.UploadClickConversions(ctx, destination, []ClickConversion{cc})
	if err != nil {
		return platform.NewError(domain.PlatformSearch, "upload conversion", platform.KindFromStatus(status), err)
	}
	return nil
}

func (a *Adapter) normalizeResult(customerID string, result SearchResult) (domain.Arm, error) {
	if result.Campaign.ID == "" {
		return domain.Arm{}, fmt.Errorf("result row missing campaign id")
	}

	if result.Campaign.CampaignBudget != "" {
		a.mu.Lock()
		a.budgets[result.Campaign.ID] = budgetRef{
			customerID: customerID,
			resource:   result.Campaign.CampaignBudget,
		}
		a.mu.Unlock()
	}

	return domain.Arm{
		Platform:     domain.PlatformSearch,
		ID:           result.Campaign.ID,
		CampaignID:   result.Campaign.ID,
		CampaignName: result.Campaign.Name,
		Date:         result.Segments.Date,
		Spend:        float64(parseInt64(result.Metrics.CostMicros)) / 1_000_000,
		Revenue:      result.Metrics.ConversionsValue,
		Conversions:  int(result.Metrics.Conversions),
		Clicks:       parseInt64(result.Metrics.Clicks),
		Impressions:  parseInt64(result.Metrics.Impressions),
	}, nil
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
