package meta

// The Graph API returns numeric fields as strings. Parsing into real numbers
// happens in the adapter; the client keeps the wire shape.

// Insight is one row of the insights response.
type Insight struct {
	CampaignID   string        `json:"campaign_id"`
	CampaignName string        `json:"campaign_name"`
	AdsetID      string        `json:"adset_id,omitempty"`
	AdsetName    string        `json:"adset_name,omitempty"`
	Impressions  string        `json:"impressions"`
	Clicks       string        `json:"clicks"`
	Spend        string        `json:"spend"`
	Actions      []Action      `json:"actions,omitempty"`
	ActionValues []ActionValue `json:"action_values,omitempty"`
	DateStart    string        `json:"date_start"`
	DateStop     string        `json:"date_stop,omitempty"`
}

// Action is a count of a conversion-like event.
type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// ActionValue is the monetary value attributed to an action type.
type ActionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type insightsResponse struct {
	Data   []Insight `json:"data"`
	Paging *paging   `json:"paging,omitempty"`
}

type paging struct {
	Next string `json:"next,omitempty"`
}

// CAPIEvent is one server-side conversion event for the Conversions API.
type CAPIEvent struct {
	EventName  string            `json:"event_name"`
	EventID    string            `json:"event_id"`
	EventTime  int64             `json:"event_time"`
	UserData   map[string]string `json:"user_data"`
	CustomData map[string]any    `json:"custom_data"`
}

type capiRequest struct {
	Data []CAPIEvent `json:"data"`
}

// UpdateResult is the acknowledgement for a budget write.
type UpdateResult struct {
	Success bool `json:"success"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
