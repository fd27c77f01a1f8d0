package dto

import "time"

// TrackEventRequest represents a tracked checkout event submitted by the storefront
type TrackEventRequest struct {
	EventID      string    `json:"event_id" example:"6f1c2a3e-9b7d-4e55-8a0f-3c2d1b0a9e8f"`
	EventName    string    `json:"event_name" binding:"required" example:"Purchase"`
	OccurredAt   time.Time `json:"occurred_at" example:"2024-05-01T12:00:00Z"`
	SessionToken string    `json:"session_token" example:"1714564800000-k3j9x2m1q"`
	Value        *float64  `json:"value" example:"199.90"`
	Currency     string    `json:"currency" example:"BRL"`
	SourceURL    string    `json:"source_url" example:"https://shop.example.com/checkout"`

	ContentIDs      []string `json:"content_ids" example:"prod-789"`
	ContentName     string   `json:"content_name" example:"Running Shoes"`
	ContentType     string   `json:"content_type" example:"product"`
	ContentCategory string   `json:"content_category" example:"footwear"`
	NumItems        int      `json:"num_items" example:"1"`
	OrderID         string   `json:"order_id" example:"ord_123"`
	CustomerID      string   `json:"customer_id" example:"cus_456"`
	TransactionID   string   `json:"transaction_id" example:"txn_789"`

	Email      string `json:"email" example:"jane@example.com"`
	Phone      string `json:"phone" example:"+55 11 91234-5678"`
	FirstName  string `json:"first_name" example:"Jane"`
	LastName   string `json:"last_name" example:"Doe"`
	City       string `json:"city" example:"Sao Paulo"`
	State      string `json:"state" example:"SP"`
	ZipCode    string `json:"zip_code" example:"01310-100"`
	Country    string `json:"country" example:"BR"`
	ExternalID string `json:"external_id" example:"cus_456"`
	FBP        string `json:"fbp" example:"fb.1.1714564800000.123456789"`
}

// CaptureRequest represents a landing page visit whose query string should be captured
type CaptureRequest struct {
	Token   string            `json:"token" example:"1714564800000-k3j9x2m1q"`
	Query   map[string]string `json:"query" swaggertype:"object,string" example:"utm_source:fb,utm_campaign:sale"`
	PageURL string            `json:"page_url" example:"https://shop.example.com/?utm_source=fb&utm_campaign=sale"`
}

// GetMetricsRequest represents a metrics query request
type GetMetricsRequest struct {
	EventName string `form:"event_name" binding:"required" example:"Purchase"`
	From      int64  `form:"from" binding:"required" example:"1723475612"`
	To        int64  `form:"to" binding:"required" example:"1723562012"`
	GroupBy   string `form:"group_by" example:"utm_source"`
}
