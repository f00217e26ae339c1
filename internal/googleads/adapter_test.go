package googleads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/adveralabs/adpilot/internal/platform"
)

func newTestAdapter(server *httptest.Server) *Adapter {
	return &Adapter{
		client: &Client{
			baseURL:        server.URL,
			developerToken: "dev-token",
			httpClient: &http.Client{
				Timeout: 5 * time.Second,
			},
		},
		budgets: make(map[string]budgetRef),
	}
}

func searchResponse() []searchChunk {
	var row SearchResult
	row.Campaign.ID = "111"
	row.Campaign.Name = "Brand Search"
	row.Campaign.CampaignBudget = "customers/9/campaignBudgets/42"
	row.Metrics.Impressions = "50000"
	row.Metrics.Clicks = "2500"
	row.Metrics.CostMicros = "325500000"
	row.Metrics.Conversions = 48
	row.Metrics.ConversionsValue = 1980.75
	row.Segments.Date = "2026-08-23"
	return []searchChunk{{Results: []SearchResult{row}}}
}

func TestFetchInsightsNormalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/9/googleAds:searchStream", r.URL.Path)
		assert.Equal(t, "dev-token", r.Header.Get("developer-token"))

		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "FROM campaign")
		assert.Contains(t, req.Query, "segments.date DURING YESTERDAY")

		json.NewEncoder(w).Encode(searchResponse())
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	arms, err := adapter.FetchInsights(context.Background(), "9", domain.Window("yesterday"), domain.LevelCampaign)
	require.NoError(t, err)
	require.Len(t, arms, 1)

	arm := arms[0]
	assert.Equal(t, domain.PlatformSearch, arm.Platform)
	assert.Equal(t, "111", arm.ID)
	assert.Equal(t, "Brand Search", arm.CampaignName)
	// 325,500,000 micros
	assert.InDelta(t, 325.50, arm.Spend, 1e-9)
	assert.Equal(t, 1980.75, arm.Revenue)
	assert.Equal(t, 48, arm.Conversions)
	assert.Equal(t, int64(2500), arm.Clicks)
	assert.Equal(t, int64(50000), arm.Impressions)
}

func TestBuildCampaignQuery(t *testing.T) {
	preset := BuildCampaignQuery(domain.Window("last_7d"), "")
	assert.Contains(t, preset, "DURING LAST_7_DAYS")
	assert.NotContains(t, preset, "campaign.id =")

	window := domain.WindowRange(
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
	)
	ranged := BuildCampaignQuery(window, "111")
	assert.Contains(t, ranged, "BETWEEN '2026-08-01' AND '2026-08-07'")
	assert.Contains(t, ranged, "AND campaign.id = 111")
}

func TestUpdateBudgetWithoutMappingIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a budget mapping")
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	err := adapter.UpdateBudget(context.Background(), "111", 200)
	require.Error(t, err)
	assert.True(t, platform.IsPending(err))
}

func TestUpdateBudgetAfterFetchSendsMicros(t *testing.T) {
	var gotBudget budgetMutateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customers/9/googleAds:searchStream":
			json.NewEncoder(w).Encode(searchResponse())
		case "/customers/9/campaignBudgets:mutate":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBudget))
			json.NewEncoder(w).Encode(budgetMutateResponse{
				Results: []struct {
					ResourceName string `json:"resourceName"`
				}{{ResourceName: "customers/9/campaignBudgets/42"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	_, err := adapter.FetchInsights(context.Background(), "9", domain.Window("yesterday"), domain.LevelCampaign)
	require.NoError(t, err)

	require.NoError(t, adapter.UpdateBudget(context.Background(), "111", 215.75))

	require.Len(t, gotBudget.Operations, 1)
	op := gotBudget.Operations[0]
	assert.Equal(t, "customers/9/campaignBudgets/42", op.Update.ResourceName)
	assert.Equal(t, "215750000", op.Update.AmountMicros)
	assert.Equal(t, "amount_micros", op.UpdateMask)
}

func TestUploadConversion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/9:uploadClickConversions", r.URL.Path)

		var req conversionUploadRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !assert.Len(t, req.Conversions, 1) {
			return
		}
		assert.True(t, req.PartialFailure)

		cc := req.Conversions[0]
		assert.Equal(t, "Cj0abc", cc.GCLID)
		assert.Equal(t, "customers/9/conversionActions/77", cc.ConversionAction)
		assert.Equal(t, 120.0, cc.ConversionValue)
		assert.Equal(t, "USD", cc.CurrencyCode)

		json.NewEncoder(w).Encode(map[string]any{"results": []any{map[string]string{"gclid": "Cj0abc"}}})
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	err := adapter.UploadConversion(context.Background(), "9", platform.Conversion{
		EventID:            "evt_2_search",
		Value:              120.0,
		Currency:           "USD",
		Timestamp:          time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC),
		GCLID:              "Cj0abc",
		ConversionActionID: "77",
	})
	require.NoError(t, err)
}

func TestUploadConversionWithoutGCLIDIsMalformed(t *testing.T) {
	adapter := &Adapter{budgets: make(map[string]budgetRef)}
	err := adapter.UploadConversion(context.Background(), "9", platform.Conversion{EventID: "evt"})
	require.Error(t, err)
	assert.Equal(t, platform.KindMalformed, platform.KindOf(err))
}

func TestFetchInsightsAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "The developer token is not approved", "status": "PERMISSION_DENIED"},
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	_, err := adapter.FetchInsights(context.Background(), "9", domain.Window("yesterday"), domain.LevelCampaign)
	require.Error(t, err)
	assert.Equal(t, platform.KindPermanent, platform.KindOf(err))
}
