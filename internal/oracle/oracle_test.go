package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adveralabs/adpilot/internal/allocator"
	"github.com/adveralabs/adpilot/internal/config"
	"github.com/adveralabs/adpilot/internal/domain"
)

func budget(v float64) *float64 { return &v }

func testRequest() allocator.Request {
	return allocator.Request{
		Arms: []domain.Arm{
			{Platform: domain.PlatformSocial, ID: "arm-a", CampaignID: "c1", CampaignName: "Prospecting",
				Spend: 100, Revenue: 400, Conversions: 20, Clicks: 500, Impressions: 10000,
				CurrentDailyBudget: budget(100)},
			{Platform: domain.PlatformSearch, ID: "arm-b", CampaignID: "c2", CampaignName: "Brand",
				Spend: 100, Revenue: 150, Conversions: 5, Clicks: 200, Impressions: 8000,
				CurrentDailyBudget: budget(100)},
		},
		TotalBudget:    300,
		MinConversions: 10,
		MaxChangeRatio: 0.3,
		Goal:           domain.GoalROAS,
		Strategy:       domain.StrategyIntelligent,
	}
}

func TestParseReplyValid(t *testing.T) {
	text := `{"allocations":[
		{"arm_id":"arm-a","platform":"social","new_budget":200,"reason":"scaling winner"},
		{"arm_id":"arm-b","platform":"search","new_budget":100,"reason":"holding steady"}
	],"recommendations":["add ltv data"]}`

	resp, err := parseReply(text, testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Allocations, 2)
	assert.InDelta(t, 300.0, resp.TotalAllocated, 1e-9)
	assert.Equal(t, []string{"add ltv data"}, resp.Recommendations)

	assert.Equal(t, "arm-a", resp.Allocations[0].ArmID)
	assert.Equal(t, domain.PlatformSocial, resp.Allocations[0].Platform)
	assert.InDelta(t, 100.0, resp.Allocations[0].ChangePercentage, 1e-9)
	assert.Equal(t, "scaling winner", resp.Allocations[0].Reason)
}

func TestParseReplyFencedJSON(t *testing.T) {
	text := "Here is the allocation:\n```json\n" +
		`{"allocations":[
			{"arm_id":"arm-a","new_budget":150,"reason":"r"},
			{"arm_id":"arm-b","new_budget":150,"reason":"r"}
		]}` + "\n```\nLet me know if you want changes."

	resp, err := parseReply(text, testRequest())
	require.NoError(t, err)
	assert.InDelta(t, 300.0, resp.TotalAllocated, 1e-9)
}

func TestParseReplyRejectsBadOutput(t *testing.T) {
	req := testRequest()

	cases := map[string]string{
		"refusal prose":  "I cannot allocate budgets without more data.",
		"unknown arm":    `{"allocations":[{"arm_id":"ghost","new_budget":300}]}`,
		"missing arm":    `{"allocations":[{"arm_id":"arm-a","new_budget":300}]}`,
		"duplicate arm":  `{"allocations":[{"arm_id":"arm-a","new_budget":100},{"arm_id":"arm-a","new_budget":100}]}`,
		"over budget":    `{"allocations":[{"arm_id":"arm-a","new_budget":400},{"arm_id":"arm-b","new_budget":100}]}`,
		"negative":       `{"allocations":[{"arm_id":"arm-a","new_budget":-50},{"arm_id":"arm-b","new_budget":100}]}`,
		"no allocations": `{"allocations":[]}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseReply(text, req)
			assert.Error(t, err)
		})
	}
}

func TestBuildUserPromptIncludesOverlays(t *testing.T) {
	req := testRequest()
	ltv := 500.0
	req.Arms[0].LTV = &ltv
	req.Arms[1].InventoryStatus = domain.InventoryLowStock

	prompt := buildUserPrompt(req)
	assert.Contains(t, prompt, "total daily budget of 300.00")
	assert.Contains(t, prompt, "id=arm-a")
	assert.Contains(t, prompt, "ltv=500.00")
	assert.Contains(t, prompt, "inventory=low_stock")
	assert.Contains(t, prompt, "goal: roas")
}

func TestOpenAIOracleAllocate(t *testing.T) {
	reply := `{"allocations":[
		{"arm_id":"arm-a","new_budget":180,"reason":"best roas"},
		{"arm_id":"arm-b","new_budget":120,"reason":"keep exploring"}
	]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "id=arm-a")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}))
	defer server.Close()

	oracle := NewOpenAIOracle(config.LLMConfig{OpenAIAPIKey: "test-key", OpenAIModel: "gpt-4o"})
	oracle.baseURL = server.URL

	resp, err := oracle.Allocate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Allocations, 2)
	assert.InDelta(t, 300.0, resp.TotalAllocated, 1e-9)
}

func TestOpenAIOracleAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	oracle := NewOpenAIOracle(config.LLMConfig{OpenAIAPIKey: "test-key"})
	oracle.baseURL = server.URL

	_, err := oracle.Allocate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestOpenAIOracleMissingKey(t *testing.T) {
	oracle := NewOpenAIOracle(config.LLMConfig{})
	_, err := oracle.Allocate(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	o, err := FromConfig(config.LLMConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, o)

	o, err = FromConfig(config.LLMConfig{Enabled: true, Provider: "openai", OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIOracle{}, o)

	_, err = FromConfig(config.LLMConfig{Enabled: true, Provider: "psychic"})
	assert.Error(t, err)
}
