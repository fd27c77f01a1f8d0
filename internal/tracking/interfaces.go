package tracking

import (
	"context"

	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// EventStore is the part of the event repository the recorder and scheduler need
type EventStore interface {
	Insert(ctx context.Context, event *domain.TrackedEvent) (bool, error)
	UpdateStatus(ctx context.Context, eventID string, update domain.StatusUpdate) error
	ListUnresolved(ctx context.Context, limit, maxAttempts int) ([]*domain.TrackedEvent, error)
	GetByID(ctx context.Context, eventID string) (*domain.TrackedEvent, error)
}

// AttributionSource returns the stored attribution context of a session, nil if none
type AttributionSource interface {
	Current(ctx context.Context, token string) *domain.AttributionContext
}

// Deliverer sends one event to the provider
type Deliverer interface {
	Deliver(ctx context.Context, event *domain.TrackedEvent) delivery.Result
}

// ProviderCheck reports whether the provider can be called at all
type ProviderCheck interface {
	Configured() error
}

// OutcomeSink receives every delivery attempt. Record must not block.
type OutcomeSink interface {
	Record(attempt *domain.DeliveryAttempt)
}

// Tracker records a submitted request
type Tracker interface {
	Track(ctx context.Context, req *domain.TrackRequest) (*domain.TrackedEvent, error)
}

// Task is one unit of work for the Dispatcher. Ack or Nack is called exactly once.
type Task interface {
	Request() *domain.TrackRequest
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
