// Package signals classifies raw business events into platform conversion
// signals, attaching the value an ad platform should optimize toward rather
// than the raw receipt amount.
package signals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adveralabs/adpilot/internal/domain"
)

// Target selects which platforms receive signals.
type Target string

const (
	TargetSocial Target = "social"
	TargetSearch Target = "search"
	TargetBoth   Target = "both"
)

// Vertical tunes classification to the business model.
type Vertical string

const (
	VerticalEcommerce Vertical = "ecommerce"
	VerticalSaaS      Vertical = "saas"
	VerticalLeadGen   Vertical = "leadgen"
	VerticalOther     Vertical = "other"
)

// defaultLeadValue is assigned to leads without revenue.
const defaultLeadValue = 10.0

// defaultMargin applies when a product has no entry in the margin map.
const defaultMargin = 0.2

// highValueLTVRatio is the predicted-LTV multiple over revenue that promotes
// a purchase to high value.
const highValueLTVRatio = 1.5

// BusinessEvent is a raw event from internal systems.
type BusinessEvent struct {
	EventType      string         `json:"event_type"`
	EventID        string         `json:"event_id"`
	UserID         string         `json:"user_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Revenue        *float64       `json:"revenue,omitempty"`
	Currency       string         `json:"currency"`
	ProductID      string         `json:"product_id,omitempty"`
	SubscriptionID string         `json:"subscription_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// LTVData is predicted lifetime value for a user.
type LTVData struct {
	UserID          string   `json:"user_id,omitempty"`
	PredictedLTV    *float64 `json:"predicted_ltv,omitempty"`
	HistoricalLTV   *float64 `json:"historical_ltv,omitempty"`
	CohortID        string   `json:"cohort_id,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// Request is one signal-generation invocation.
type Request struct {
	Events             []BusinessEvent    `json:"events"`
	Platform           Target             `json:"platform"`
	Vertical           Vertical           `json:"vertical"`
	LTVData            []LTVData          `json:"ltv_data,omitempty"`
	ProfitMargins      map[string]float64 `json:"profit_margins,omitempty"`
	QualificationRules map[string]any     `json:"qualification_rules,omitempty"`
}

// PlatformSignal is one classified conversion signal bound to a platform.
type PlatformSignal struct {
	Platform       domain.Platform   `json:"platform"`
	EventName      string            `json:"event_name"`
	EventID        string            `json:"event_id"`
	Value          float64           `json:"value"`
	Currency       string            `json:"currency"`
	Timestamp      time.Time         `json:"timestamp"`
	UserData       map[string]string `json:"user_data"`
	CustomData     map[string]any    `json:"custom_data"`
	Classification string            `json:"classification"`
	Reasoning      string            `json:"reasoning"`
}

// Response carries the generated signals plus detected data issues.
type Response struct {
	BatchID           string                     `json:"batch_id"`
	Signals           []PlatformSignal           `json:"signals"`
	IssuesDetected    []string                   `json:"issues_detected"`
	Recommendations   []string                   `json:"recommendations"`
	TotalValue        float64                    `json:"total_value"`
	SignalsByPlatform map[domain.Platform]int    `json:"signals_by_platform"`
}

// Generate classifies every event once per target platform. Invalid events
// produce an issue instead of a signal; the batch never fails as a whole.
func Generate(req Request) *Response {
	resp := &Response{
		BatchID:           uuid.NewString(),
		SignalsByPlatform: make(map[domain.Platform]int),
	}

	targets := targetPlatforms(req.Platform)

	for _, event := range req.Events {
		eventName, classification, value, issue := classify(event, req)
		if issue != "" {
			resp.IssuesDetected = append(resp.IssuesDetected, issue)
			continue
		}

		currency := event.Currency
		if currency == "" {
			currency = "USD"
		}

		for _, p := range targets {
			resp.Signals = append(resp.Signals, PlatformSignal{
				Platform:       p,
				EventName:      eventName,
				EventID:        fmt.Sprintf("%s_%s", event.EventID, p),
				Value:          value,
				Currency:       currency,
				Timestamp:      event.Timestamp,
				UserData:       userData(event),
				CustomData:     event.Metadata,
				Classification: classification,
				Reasoning:      fmt.Sprintf("Classified as %s based on event type and business rules", classification),
			})
			resp.SignalsByPlatform[p]++
			resp.TotalValue += value
		}
	}

	if len(req.LTVData) == 0 || req.QualificationRules == nil {
		resp.Recommendations = []string{
			"Consider implementing LTV prediction for better high-value purchase classification",
			"Set up CRM qualification rules for lead classification",
			"Add profit margin data for accurate value calculation",
		}
	}

	return resp
}

func classify(event BusinessEvent, req Request) (eventName, classification string, value float64, issue string) {
	switch event.EventType {
	case "purchase":
		if event.Revenue == nil {
			return "", "", 0, fmt.Sprintf("Purchase event %s missing revenue", event.EventID)
		}
		revenue := *event.Revenue
		value = revenue
		classification = "purchase"

		if ltv := lookupLTV(req.LTVData, event.UserID); ltv != nil && ltv.PredictedLTV != nil && *ltv.PredictedLTV > revenue*highValueLTVRatio {
			classification = "high_value_purchase"
			value = *ltv.PredictedLTV
		}
		if req.ProfitMargins != nil {
			if productID := eventProductID(event); productID != "" {
				margin, ok := req.ProfitMargins[productID]
				if !ok {
					margin = defaultMargin
				}
				value = revenue * margin
			}
		}
		// The platform event name stays Purchase either way; the
		// classification field carries the distinction.
		return "Purchase", classification, value, ""

	case "lead":
		qualified := false
		if req.QualificationRules != nil {
			qualified, _ = event.Metadata["qualified"].(bool)
		}
		classification = "lead"
		if qualified {
			classification = "qualified_lead"
		}
		value = defaultLeadValue
		if event.Revenue != nil {
			value = *event.Revenue
		}
		return "Lead", classification, value, ""

	case "signup", "trial_start":
		value = 0
		if event.Revenue != nil {
			value = *event.Revenue
		}
		return "CompleteRegistration", "trial_start", value, ""

	default:
		value = 0
		if event.Revenue != nil {
			value = *event.Revenue
		}
		return event.EventType, event.EventType, value, ""
	}
}

func targetPlatforms(t Target) []domain.Platform {
	switch t {
	case TargetSocial:
		return []domain.Platform{domain.PlatformSocial}
	case TargetSearch:
		return []domain.Platform{domain.PlatformSearch}
	default:
		return []domain.Platform{domain.PlatformSocial, domain.PlatformSearch}
	}
}

func lookupLTV(data []LTVData, userID string) *LTVData {
	for i := range data {
		if data[i].UserID == userID {
			return &data[i]
		}
	}
	return nil
}

func eventProductID(event BusinessEvent) string {
	if event.ProductID != "" {
		return event.ProductID
	}
	if pid, ok := event.Metadata["product_id"].(string); ok {
		return pid
	}
	return ""
}

// userData extracts the identifier subset platforms accept for matching.
// Empty strings are dropped rather than sent.
func userData(event BusinessEvent) map[string]string {
	out := make(map[string]string)
	for _, key := range []string{"email", "phone"} {
		if v, ok := event.Metadata[key].(string); ok && v != "" {
			out[key] = v
		}
	}
	return out
}
