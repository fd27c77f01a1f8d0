package domain

import "time"

// Attempt sources.
const (
	SourceImmediate = "immediate"
	SourceSweep     = "sweep"
)

// DeliveryAttempt is one send of a tracked event, stored in ClickHouse
type DeliveryAttempt struct {
	EventID      string    `ch:"event_id"`
	EventName    string    `ch:"event_name"`
	Status       string    `ch:"status"`
	Source       string    `ch:"source"`
	Attempt      uint32    `ch:"attempt"`
	UTMSource    string    `ch:"utm_source"`
	UTMCampaign  string    `ch:"utm_campaign"`
	Value        float64   `ch:"value"`
	Currency     string    `ch:"currency"`
	ErrorCode    int32     `ch:"error_code"`
	ErrorMessage string    `ch:"error_message"`
	OccurredAt   time.Time `ch:"occurred_at"`
	AttemptedAt  time.Time `ch:"attempted_at"`
	Version      uint64    `ch:"version"`
}
