package consumer

import (
	"context"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/tracking"
)

// MessageParser defines the interface for parsing raw message bytes into track requests
type MessageParser interface {
	Parse(body []byte) (*domain.TrackRequest, error)
}

// EnvelopeSource produces envelopes until ctx is done, then closes out
type EnvelopeSource interface {
	Start(ctx context.Context, out chan<- *Envelope)
}

// TaskDispatcher runs tracking tasks
type TaskDispatcher interface {
	Submit(ctx context.Context, task tracking.Task) error
	Run(ctx context.Context)
}
