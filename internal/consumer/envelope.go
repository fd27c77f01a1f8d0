package consumer

import (
	"context"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Envelope wraps a track request with acknowledgment callbacks
type Envelope struct {
	req  *domain.TrackRequest
	ack  func(context.Context) error
	nack func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(req *domain.TrackRequest, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		req:  req,
		ack:  ack,
		nack: nack,
	}
}

// Request returns the wrapped track request
func (e *Envelope) Request() *domain.TrackRequest {
	return e.req
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
