package dto

import (
	"encoding/json"
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"event_name is required"`
}

// TrackEventResponse represents an accepted event submission
type TrackEventResponse struct {
	EventID string `json:"event_id" example:"6f1c2a3e-9b7d-4e55-8a0f-3c2d1b0a9e8f"`
	Status  string `json:"status" example:"accepted"`
}

// EventStatusResponse represents the delivery state of a tracked event
type EventStatusResponse struct {
	EventID          string          `json:"event_id" example:"6f1c2a3e-9b7d-4e55-8a0f-3c2d1b0a9e8f"`
	EventName        string          `json:"event_name" example:"Purchase"`
	Status           string          `json:"status" example:"sent"`
	Attempts         int             `json:"attempts" example:"1"`
	OccurredAt       time.Time       `json:"occurred_at" example:"2024-05-01T12:00:00Z"`
	UTMSource        *string         `json:"utm_source" example:"fb"`
	UTMCampaign      *string         `json:"utm_campaign" example:"sale"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty" swaggertype:"object"`
	CreatedAt        time.Time       `json:"created_at" example:"2024-05-01T12:00:01Z"`
	UpdatedAt        time.Time       `json:"updated_at" example:"2024-05-01T12:00:02Z"`
}

// AttributionResponse represents the attribution context of a session
type AttributionResponse struct {
	Token       string  `json:"token" example:"1714564800000-k3j9x2m1q"`
	UTMSource   *string `json:"utm_source" example:"fb"`
	UTMMedium   *string `json:"utm_medium" example:"cpc"`
	UTMCampaign *string `json:"utm_campaign" example:"sale"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	FBCLID      *string `json:"fbclid" example:"IwAR0abc"`
	GCLID       *string `json:"gclid"`
	TTCLID      *string `json:"ttclid"`
}

// MetricsGroupData represents aggregated metrics for a specific group
type MetricsGroupData struct {
	GroupValue    string `json:"group_value" example:"fb"`
	TotalAttempts uint64 `json:"total_attempts" example:"1500"`
	SentEvents    uint64 `json:"sent_events" example:"1400"`
}

// GetMetricsResponse represents the metrics query response
type GetMetricsResponse struct {
	EventName     string             `json:"event_name" example:"Purchase"`
	From          int64              `json:"from" example:"1723475612"`
	To            int64              `json:"to" example:"1723562012"`
	TotalAttempts uint64             `json:"total_attempts" example:"5000"`
	UniqueEvents  uint64             `json:"unique_events" example:"4200"`
	SentEvents    uint64             `json:"sent_events" example:"4100"`
	SentValue     float64            `json:"sent_value" example:"81959.00"`
	GroupBy       string             `json:"group_by,omitempty" example:"utm_source"`
	Groups        []MetricsGroupData `json:"groups,omitempty"`
}

// WebhookResponse represents the outcome of a webhook call
type WebhookResponse struct {
	Type   string `json:"type" example:"payment"`
	Status string `json:"status" example:"sent"`
}
