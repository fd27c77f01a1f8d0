package domain

import (
	"encoding/json"
	"time"
)

// DefaultCurrency is applied when a tracked event carries no currency.
const DefaultCurrency = "BRL"

// Status is the delivery state of a tracked event.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// UnresolvedStatuses are the statuses the retry scheduler picks up.
var UnresolvedStatuses = []Status{StatusPending, StatusFailed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusSent
}

// CanTransition reports whether an event in state s may move to next.
// pending and failed both move to sent or failed; sent never moves.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending, StatusFailed:
		return next == StatusSent || next == StatusFailed
	}
	return false
}

// EventName is a provider standard event name.
type EventName string

const (
	EventInitiateCheckout     EventName = "InitiateCheckout"
	EventAddPaymentInfo       EventName = "AddPaymentInfo"
	EventPurchase             EventName = "Purchase"
	EventCompleteRegistration EventName = "CompleteRegistration"
	EventViewContent          EventName = "ViewContent"
	EventAddToCart            EventName = "AddToCart"
)

// Valid reports whether n is one of the tracked event names.
func (n EventName) Valid() bool {
	switch n {
	case EventInitiateCheckout, EventAddPaymentInfo, EventPurchase,
		EventCompleteRegistration, EventViewContent, EventAddToCart:
		return true
	}
	return false
}

// CustomData holds the event-specific fields the checkout sends along.
type CustomData struct {
	ContentIDs      []string `json:"content_ids,omitempty"`
	ContentName     string   `json:"content_name,omitempty"`
	ContentType     string   `json:"content_type,omitempty"`
	ContentCategory string   `json:"content_category,omitempty"`
	NumItems        int      `json:"num_items,omitempty"`
	OrderID         string   `json:"order_id,omitempty"`
	CustomerID      string   `json:"customer_id,omitempty"`
	TransactionID   string   `json:"transaction_id,omitempty"`
}

// UserData carries provider match keys. Identity fields are SHA-256 hex
// digests; raw personal data is never stored.
type UserData struct {
	Emails      []string `json:"em,omitempty"`
	Phones      []string `json:"ph,omitempty"`
	FirstNames  []string `json:"fn,omitempty"`
	LastNames   []string `json:"ln,omitempty"`
	Cities      []string `json:"ct,omitempty"`
	States      []string `json:"st,omitempty"`
	ZipCodes    []string `json:"zp,omitempty"`
	Countries   []string `json:"country,omitempty"`
	ExternalIDs []string `json:"external_id,omitempty"`

	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	FBC             string `json:"fbc,omitempty"`
	FBP             string `json:"fbp,omitempty"`
}

// TrackedEvent is one attribution-relevant user action and its delivery state.
type TrackedEvent struct {
	ID               int64              `json:"-"`
	EventID          string             `json:"event_id"`
	EventName        EventName          `json:"event_name"`
	OccurredAt       time.Time          `json:"occurred_at"`
	Value            *float64           `json:"value,omitempty"`
	Currency         string             `json:"currency"`
	SourceURL        string             `json:"source_url,omitempty"`
	Attribution      AttributionContext `json:"attribution"`
	CustomData       CustomData         `json:"custom_data"`
	UserData         UserData           `json:"user_data"`
	Status           Status             `json:"status"`
	Attempts         int                `json:"attempts"`
	ProviderResponse json.RawMessage    `json:"provider_response,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// StatusUpdate is the write-back after a delivery attempt.
type StatusUpdate struct {
	Status   Status
	Response json.RawMessage
}
