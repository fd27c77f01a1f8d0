package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/webhook"
)

var (
	// ErrInvalidRequest marks input the caller has to fix
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned when the requested resource does not exist
	ErrNotFound = errors.New("not found")
)

// ClientMeta is the transport metadata of an API request
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// EventServicer defines the interface for event service operations
type EventServicer interface {
	TrackEvent(ctx context.Context, req *dto.TrackEventRequest, client ClientMeta) (string, error)
	GetEvent(ctx context.Context, eventID string) (*dto.EventStatusResponse, error)
	GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error)
}

// AttributionServicer defines the interface for attribution capture operations
type AttributionServicer interface {
	Capture(ctx context.Context, req *dto.CaptureRequest) *dto.AttributionResponse
	Get(ctx context.Context, token string) (*dto.AttributionResponse, error)
	Reset(ctx context.Context, token string) error
}

// WebhookServicer defines the interface for checkout webhook operations
type WebhookServicer interface {
	Send(ctx context.Context, typ string, payload map[string]any) error
	Receive(ctx context.Context, typ string, payload json.RawMessage) error
}

// EventReader reads stored events
type EventReader interface {
	GetByID(ctx context.Context, eventID string) (*domain.TrackedEvent, error)
}

// ClientEnricher derives client info from request metadata
type ClientEnricher interface {
	Enrich(userAgent, clientIP string) domain.ClientInfo
}

// Capturer merges landing page parameters into stored attribution contexts
type Capturer interface {
	Capture(ctx context.Context, token string, query url.Values) *domain.AttributionContext
	Current(ctx context.Context, token string) *domain.AttributionContext
	Reset(ctx context.Context, token string) error
}

// WebhookSender posts checkout step payloads
type WebhookSender interface {
	Send(ctx context.Context, typ webhook.Type, payload map[string]any) error
}

// WebhookLogWriter records inbound webhook calls
type WebhookLogWriter interface {
	InsertWebhookLog(ctx context.Context, entry *domain.WebhookLog) error
}
