package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/pkg/httpretry"
)

// defaultInsightFields are requested when the caller does not narrow them.
var defaultInsightFields = []string{
	"campaign_id",
	"campaign_name",
	"impressions",
	"clicks",
	"spend",
	"actions",
	"action_values",
}

// Client is a Graph Marketing API client
type Client struct {
	baseURL     string
	accessToken string
	httpClient  httpretry.HTTPDoer
}

// NewClient creates a new Graph Marketing API client
func NewClient(cfg config.MetaConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIVersion,
		accessToken: cfg.AccessToken,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// doRequest makes an HTTP request to the Graph API
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any) (int, []byte, error) {
	params.Set("access_token", c.accessToken)
	fullURL := c.baseURL + path + "?" + params.Encode()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return resp.StatusCode, respBody, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return resp.StatusCode, respBody, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return resp.StatusCode, respBody, nil
}

// InsightsQuery narrows an insights request.
type InsightsQuery struct {
	DatePreset    string
	TimeRange     *TimeRange
	Level         string
	TimeIncrement int
	Fields        []string
}

// TimeRange is an explicit since/until pair in YYYY-MM-DD.
type TimeRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// GetInsights fetches performance rows for an ad account.
func (c *Client) GetInsights(ctx context.Context, accountID string, query InsightsQuery) ([]Insight, int, error) {
	params := url.Values{}
	if query.TimeRange != nil {
		tr, err := json.Marshal(query.TimeRange)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding time range: %w", err)
		}
		params.Set("time_range", string(tr))
	} else if query.DatePreset != "" {
		params.Set("date_preset", query.DatePreset)
	}
	if query.Level != "" {
		params.Set("level", query.Level)
	}
	if query.TimeIncrement > 0 {
		params.Set("time_increment", fmt.Sprintf("%d", query.TimeIncrement))
	}
	fields := query.Fields
	if len(fields) == 0 {
		fields = defaultInsightFields
	}
	params.Set("fields", strings.Join(fields, ","))

	status, body, err := c.doRequest(ctx, http.MethodGet, "/"+accountID+"/insights", params, nil)
	if err != nil {
		return nil, status, fmt.Errorf("fetching insights: %w", err)
	}

	var response insightsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, status, fmt.Errorf("parsing insights: %w", err)
	}
	return response.Data, status, nil
}

// UpdateAdsetBudget sets the daily budget for an adset. The amount is in
// whole currency units; the API wants cents.
func (c *Client) UpdateAdsetBudget(ctx context.Context, adsetID string, dailyBudget float64) (int, error) {
	params := url.Values{}
	params.Set("daily_budget", fmt.Sprintf("%d", int64(dailyBudget*100)))

	status, body, err := c.doRequest(ctx, http.MethodPost, "/"+adsetID, params, nil)
	if err != nil {
		return status, fmt.Errorf("updating adset budget: %w", err)
	}

	var result UpdateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return status, fmt.Errorf("parsing budget update response: %w", err)
	}
	if !result.Success {
		return status, fmt.Errorf("budget update not acknowledged for adset %s", adsetID)
	}
	return status, nil
}

// SendConversionEvent pushes one server-side conversion through the
// Conversions API.
func (c *Client) SendConversionEvent(ctx context.Context, pixelID string, event CAPIEvent) (int, error) {
	status, _, err := c.doRequest(ctx, http.MethodPost, "/"+pixelID+"/events", url.Values{}, capiRequest{Data: []CAPIEvent{event}})
	if err != nil {
		return status, fmt.Errorf("sending conversion event: %w", err)
	}
	return status, nil
}
