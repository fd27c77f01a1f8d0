package repository

import (
	"context"
	"errors"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// ErrEventNotFound is returned when no event matches, or when an update targets an event already sent.
var ErrEventNotFound = errors.New("event not found")

// MetricsQuery represents a metrics query parameters
type MetricsQuery struct {
	EventName string
	From      int64
	To        int64
	GroupBy   string
}

// MetricsGroupResult represents aggregated metrics for a specific group
type MetricsGroupResult struct {
	GroupValue    string
	TotalAttempts uint64
	SentEvents    uint64
}

// MetricsResult represents the result of a metrics query
type MetricsResult struct {
	TotalAttempts uint64
	UniqueEvents  uint64
	SentEvents    uint64
	SentValue     float64
	Groups        []MetricsGroupResult
}

// EventRepository is the durable store of tracked events
type EventRepository interface {
	// Insert stores a new event. It reports false when the event_id already exists.
	Insert(ctx context.Context, event *domain.TrackedEvent) (bool, error)

	// UpdateStatus records the outcome of a delivery attempt
	UpdateStatus(ctx context.Context, eventID string, update domain.StatusUpdate) error

	// ListUnresolved returns up to limit pending or failed events, oldest first.
	// maxAttempts > 0 excludes events that already reached it.
	ListUnresolved(ctx context.Context, limit, maxAttempts int) ([]*domain.TrackedEvent, error)

	// GetByID returns a single event
	GetByID(ctx context.Context, eventID string) (*domain.TrackedEvent, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error
}

// SettingsRepository reads checkout settings managed by the admin dashboard
type SettingsRepository interface {
	WebhookURLs(ctx context.Context) (*domain.WebhookURLs, error)
	InsertWebhookLog(ctx context.Context, log *domain.WebhookLog) error
}

// AttributionRepository stores attribution contexts keyed by session token
type AttributionRepository interface {
	// Load returns nil, nil when nothing is stored for the token
	Load(ctx context.Context, token string) (*domain.AttributionContext, error)
	Save(ctx context.Context, attribution *domain.AttributionContext) error
	Delete(ctx context.Context, token string) error
}

// DeliveryLogRepository defines the interface for delivery attempt storage operations
type DeliveryLogRepository interface {
	// InsertBatch inserts a batch of delivery attempts into the storage
	InsertBatch(ctx context.Context, attempts []*domain.DeliveryAttempt) (int, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// GetMetrics retrieves aggregated metrics based on the query
	GetMetrics(ctx context.Context, query MetricsQuery) (*MetricsResult, error)
}
