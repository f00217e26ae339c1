package googleads

// REST search responses use camelCase field names; 64-bit counters arrive as
// strings. The adapter converts both.

// SearchResult is one row of a searchStream response.
type SearchResult struct {
	Campaign struct {
		ResourceName   string `json:"resourceName"`
		ID             string `json:"id"`
		Name           string `json:"name"`
		CampaignBudget string `json:"campaignBudget"`
	} `json:"campaign"`
	Metrics struct {
		Impressions      string  `json:"impressions"`
		Clicks           string  `json:"clicks"`
		CostMicros       string  `json:"costMicros"`
		Conversions      float64 `json:"conversions"`
		ConversionsValue float64 `json:"conversionsValue"`
	} `json:"metrics"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
}

type searchChunk struct {
	Results []SearchResult `json:"results"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type budgetMutateRequest struct {
	Operations []budgetOperation `json:"operations"`
}

type budgetOperation struct {
	Update     budgetUpdate `json:"update"`
	UpdateMask string       `json:"updateMask"`
}

type budgetUpdate struct {
	ResourceName string `json:"resourceName"`
	AmountMicros string `json:"amountMicros"`
}

type budgetMutateResponse struct {
	Results []struct {
		ResourceName string `json:"resourceName"`
	} `json:"results"`
}

// ClickConversion is one offline conversion keyed by click id.
type ClickConversion struct {
	GCLID              string  `json:"gclid"`
	ConversionAction   string  `json:"conversionAction"`
	ConversionDateTime string  `json:"conversionDateTime"`
	ConversionValue    float64 `json:"conversionValue"`
	CurrencyCode       string  `json:"currencyCode"`
}

type conversionUploadRequest struct {
	Conversions    []ClickConversion `json:"conversions"`
	PartialFailure bool              `json:"partialFailure"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
