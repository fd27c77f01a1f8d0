package provider

import (
	"encoding/json"
	"fmt"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// ActionSourceWebsite marks events that happened on the storefront
const ActionSourceWebsite = "website"

// CustomData is the custom_data object of one event payload
type CustomData struct {
	Value           *float64 `json:"value,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	ContentIDs      []string `json:"content_ids,omitempty"`
	ContentName     string   `json:"content_name,omitempty"`
	ContentType     string   `json:"content_type,omitempty"`
	ContentCategory string   `json:"content_category,omitempty"`
	NumItems        int      `json:"num_items,omitempty"`
	OrderID         string   `json:"order_id,omitempty"`
	CustomerID      string   `json:"customer_id,omitempty"`
	TransactionID   string   `json:"transaction_id,omitempty"`
	UTMSource       string   `json:"utm_source,omitempty"`
	UTMMedium       string   `json:"utm_medium,omitempty"`
	UTMCampaign     string   `json:"utm_campaign,omitempty"`
	UTMTerm         string   `json:"utm_term,omitempty"`
	UTMContent      string   `json:"utm_content,omitempty"`
	FBCLID          string   `json:"fbclid,omitempty"`
	GCLID           string   `json:"gclid,omitempty"`
	TTCLID          string   `json:"ttclid,omitempty"`
}

// EventPayload is one entry of the data array sent to the conversions endpoint
type EventPayload struct {
	EventName      string          `json:"event_name"`
	EventTime      int64           `json:"event_time"`
	EventID        string          `json:"event_id"`
	EventSourceURL string          `json:"event_source_url,omitempty"`
	ActionSource   string          `json:"action_source"`
	UserData       domain.UserData `json:"user_data"`
	CustomData     CustomData      `json:"custom_data"`
}

type request struct {
	Data        []EventPayload `json:"data"`
	AccessToken string         `json:"access_token"`
}

// Response is the body returned by the conversions endpoint
type Response struct {
	EventsReceived int             `json:"events_received,omitempty"`
	Messages       json.RawMessage `json:"messages,omitempty"`
	FBTraceID      string          `json:"fbtrace_id,omitempty"`
	Error          *APIError       `json:"error,omitempty"`
}

// APIError is the error object the provider embeds in its responses
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("provider error %d (%s): %s", e.Code, e.Type, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// StatusError is returned for a non-2xx response
type StatusError struct {
	StatusCode int
	Body       []byte
	API        *APIError
}

func (e *StatusError) Error() string {
	if e.API != nil {
		return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.API.Message)
	}
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// Unwrap exposes the embedded provider error, if any
func (e *StatusError) Unwrap() error {
	if e.API == nil {
		return nil
	}
	return e.API
}
