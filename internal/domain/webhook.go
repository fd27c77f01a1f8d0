package domain

import (
	"encoding/json"
	"time"
)

// WebhookURLs are the checkout step webhook targets configured in the admin dashboard.
type WebhookURLs struct {
	Email    string
	Customer string
	Address  string
	Payment  string
}

// WebhookLog is an inbound webhook call recorded for the admin logs page.
type WebhookLog struct {
	WebhookType string
	Payload     json.RawMessage
	Status      string
	CreatedAt   time.Time
}
