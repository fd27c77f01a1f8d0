package domain

import "time"

// ClientInfo is transport metadata of the request that produced an event.
type ClientInfo struct {
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
	Country    string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
}

// TrackRequest is the unit of work carried from the API to the worker queue.
// UserData is already hashed when the request is built.
type TrackRequest struct {
	EventID      string     `json:"event_id"`
	EventName    EventName  `json:"event_name"`
	OccurredAt   time.Time  `json:"occurred_at"`
	SessionToken string     `json:"session_token,omitempty"`
	Value        *float64   `json:"value,omitempty"`
	Currency     string     `json:"currency,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
	CustomData   CustomData `json:"custom_data"`
	UserData     UserData   `json:"user_data"`
	Client       ClientInfo `json:"client"`
}
