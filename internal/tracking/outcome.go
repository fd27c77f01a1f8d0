package tracking

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// ChannelSink forwards attempts to a channel, dropping them when it is full
type ChannelSink struct {
	ch      chan<- *domain.DeliveryAttempt
	dropped atomic.Int64
	log     *zap.Logger
}

// NewChannelSink creates a sink writing to ch
func NewChannelSink(ch chan<- *domain.DeliveryAttempt, log *zap.Logger) *ChannelSink {
	return &ChannelSink{ch: ch, log: log}
}

// Record forwards attempt without blocking
func (s *ChannelSink) Record(attempt *domain.DeliveryAttempt) {
	select {
	case s.ch <- attempt:
	default:
		n := s.dropped.Add(1)
		s.log.Warn("Delivery log channel full, dropping attempt",
			zap.String("event_id", attempt.EventID),
			zap.Int64("dropped_total", n))
	}
}

// Dropped returns the number of attempts dropped so far
func (s *ChannelSink) Dropped() int64 {
	return s.dropped.Load()
}

// NopSink discards every attempt
type NopSink struct{}

func (NopSink) Record(*domain.DeliveryAttempt) {}

// NewAttempt describes one delivery of event for the delivery log
func NewAttempt(event *domain.TrackedEvent, result delivery.Result, source string, at time.Time) *domain.DeliveryAttempt {
	attempt := &domain.DeliveryAttempt{
		EventID:     event.EventID,
		EventName:   string(event.EventName),
		Status:      string(result.Status),
		Source:      source,
		Attempt:     uint32(event.Attempts + 1),
		UTMSource:   domain.StringValue(event.Attribution.UTMSource),
		UTMCampaign: domain.StringValue(event.Attribution.UTMCampaign),
		Currency:    event.Currency,
		ErrorCode:   int32(result.ErrorCode),
		OccurredAt:  event.OccurredAt,
		AttemptedAt: at,
		Version:     uint64(at.UnixNano()),
	}
	if event.Value != nil {
		attempt.Value = *event.Value
	}
	if result.Err != nil {
		attempt.ErrorMessage = result.Err.Error()
	}
	return attempt
}
