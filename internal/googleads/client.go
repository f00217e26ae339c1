package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/pkg/httpretry"
)

// Client is a Google Ads REST API client
type Client struct {
	baseURL         string
	developerToken  string
	loginCustomerID string
	httpClient      httpretry.HTTPDoer
}

// NewClient creates a new Google Ads API client. Authentication uses an
// OAuth refresh token exchanged through the standard token endpoint.
func NewClient(cfg config.GoogleAdsConfig) *Client {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Endpoint:     google.Endpoint,
	}
	source := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = cfg.Timeout()

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIVersion,
		developerToken:  cfg.DeveloperToken,
		loginCustomerID: cfg.LoginCustomerID,
		httpClient:      httpretry.NewRetryClient(httpClient, 3),
	}
}

// doRequest makes an HTTP request to the Google Ads API
func (c *Client) doRequest(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
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

// SearchStream runs a GAQL query and returns the flattened result rows.
func (c *Client) SearchStream(ctx context.Context, customerID, query string) ([]SearchResult, int, error) {
	path := fmt.Sprintf("/customers/%s/googleAds:searchStream", customerID)

	status, body, err := c.doRequest(ctx, path, searchRequest{Query: query})
	if err != nil {
		return nil, status, fmt.Errorf("running search stream: %w", err)
	}

	var chunks []searchChunk
	if err := json.Unmarshal(body, &chunks); err != nil {
		return nil, status, fmt.Errorf("parsing search stream: %w", err)
	}

	var results []SearchResult
	for _, chunk := range chunks {
		results = append(results, chunk.Results...)
	}
	return results, status, nil
}

// UpdateCampaignBudget sets a campaign budget, in whole currency units, on
// the budget resource. The API wants micros.
func (c *Client) UpdateCampaignBudget(ctx context.Context, customerID, budgetResource string, amount float64) (int, error) {
	path := fmt.Sprintf("/customers/%s/campaignBudgets:mutate", customerID)
	payload := budgetMutateRequest{
		Operations: []budgetOperation{{
			Update: budgetUpdate{
				ResourceName: budgetResource,
				AmountMicros: fmt.Sprintf("%d", int64(amount*1_000_000)),
			},
			UpdateMask: "amount_micros",
		}},
	}

	status, body, err := c.doRequest(ctx, path, payload)
	if err != nil {
		return status, fmt.Errorf("updating campaign budget: %w", err)
	}

	var result budgetMutateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return status, fmt.Errorf("parsing budget mutate response: %w", err)
	}
	if len(result.Results) == 0 {
		return status, fmt.Errorf("budget mutate not acknowledged for %s", budgetResource)
	}
	return status, nil
}

// UploadClickConversions sends offline conversions keyed by click id.
func (c *Client) UploadClickConversions(ctx context.Context, customerID string, conversions []ClickConversion) (int, error) {
	path := fmt.Sprintf("/customers/%s:uploadClickConversions", customerID)
	payload := conversionUploadRequest{Conversions: conversions, PartialFailure: true}

	status, _, err := c.doRequest(ctx, path, payload)
	if err != nil {
		return status, fmt.Errorf("uploading click conversions: %w", err)
	}
	return status, nil
}
