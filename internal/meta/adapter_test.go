package meta

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
	return &Adapter{client: &Client{
		baseURL:     server.URL,
		accessToken: "test-token",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}}
}

func TestFetchInsightsNormalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_123/insights", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "yesterday", r.URL.Query().Get("date_preset"))
		assert.Equal(t, "campaign", r.URL.Query().Get("level"))

		response := insightsResponse{Data: []Insight{
			{
				CampaignID:   "c1",
				CampaignName: "Prospecting US",
				Impressions:  "12000",
				Clicks:       "340",
				Spend:        "150.25",
				Actions: []Action{
					{ActionType: "purchase", Value: "12"},
					{ActionType: "lead", Value: "3"},
					{ActionType: "link_click", Value: "200"},
				},
				ActionValues: []ActionValue{
					{ActionType: "purchase", Value: "890.50"},
					{ActionType: "lead", Value: "45.00"},
				},
				DateStart: "2026-08-23",
			},
			{
				// No campaign id: skipped.
				CampaignName: "orphan row",
				Spend:        "10",
			},
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	arms, err := adapter.FetchInsights(context.Background(), "act_123", domain.Window("yesterday"), domain.LevelCampaign)
	require.NoError(t, err)
	require.Len(t, arms, 1)

	arm := arms[0]
	assert.Equal(t, domain.PlatformSocial, arm.Platform)
	assert.Equal(t, "c1", arm.ID)
	assert.Equal(t, "Prospecting US", arm.CampaignName)
	assert.Equal(t, 150.25, arm.Spend)
	// purchase value only, lead value excluded
	assert.Equal(t, 890.50, arm.Revenue)
	// purchase + lead, link_click excluded
	assert.Equal(t, 15, arm.Conversions)
	assert.Equal(t, int64(340), arm.Clicks)
	assert.Equal(t, int64(12000), arm.Impressions)
	assert.Equal(t, "2026-08-23", arm.Date)
}

func TestFetchInsightsExplicitRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr := r.URL.Query().Get("time_range")
		assert.Contains(t, tr, `"since":"2026-08-01"`)
		assert.Contains(t, tr, `"until":"2026-08-07"`)
		assert.Empty(t, r.URL.Query().Get("date_preset"))
		json.NewEncoder(w).Encode(insightsResponse{})
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	window := domain.WindowRange(
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
	)
	arms, err := adapter.FetchInsights(context.Background(), "act_123", window, domain.LevelCampaign)
	require.NoError(t, err)
	assert.Empty(t, arms)
}

func TestFetchInsightsAuthFailureIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Invalid OAuth access token", "code": 190},
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	_, err := adapter.FetchInsights(context.Background(), "act_123", domain.Window("yesterday"), domain.LevelCampaign)
	require.Error(t, err)
	assert.Equal(t, platform.KindPermanent, platform.KindOf(err))
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestUpdateBudgetSendsCents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/adset_9", r.URL.Path)
		assert.Equal(t, "12550", r.URL.Query().Get("daily_budget"))
		json.NewEncoder(w).Encode(UpdateResult{Success: true})
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	err := adapter.UpdateBudget(context.Background(), "adset_9", 125.50)
	require.NoError(t, err)
}

func TestUpdateBudgetServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	err := adapter.UpdateBudget(context.Background(), "adset_9", 100)
	require.Error(t, err)
	assert.Equal(t, platform.KindTransient, platform.KindOf(err))
}

func TestUploadConversion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pixel_1/events", r.URL.Path)

		var req capiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !assert.Len(t, req.Data, 1) {
			return
		}

		event := req.Data[0]
		assert.Equal(t, "Purchase", event.EventName)
		assert.Equal(t, "evt_1_social", event.EventID)
		assert.Equal(t, 249.99, event.CustomData["value"])
		assert.Equal(t, "USD", event.CustomData["currency"])
		assert.Equal(t, "hashed-email", event.UserData["em"])

		json.NewEncoder(w).Encode(map[string]int{"events_received": 1})
	}))
	defer server.Close()

	adapter := newTestAdapter(server)
	err := adapter.UploadConversion(context.Background(), "pixel_1", platform.Conversion{
		EventName: "Purchase",
		EventID:   "evt_1_social",
		Value:     249.99,
		Currency:  "USD",
		Timestamp: time.Now(),
		UserData:  map[string]string{"em": "hashed-email"},
	})
	require.NoError(t, err)
}

func TestNormalizeInsightLooseNumbers(t *testing.T) {
	arm, err := normalizeInsight(Insight{
		CampaignID:  "c2",
		Impressions: "",
		Clicks:      "3.0",
		Spend:       "not-a-number",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), arm.Impressions)
	assert.Equal(t, int64(3), arm.Clicks)
	assert.Equal(t, 0.0, arm.Spend)
}
