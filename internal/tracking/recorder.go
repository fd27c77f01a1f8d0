package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// Recorder stores submitted events and makes one immediate delivery attempt
type Recorder struct {
	store       EventStore
	attribution AttributionSource
	deliverer   Deliverer
	sink        OutcomeSink
	log         *zap.Logger
	now         func() time.Time
}

// NewRecorder creates a new recorder. A nil sink discards delivery attempts.
func NewRecorder(store EventStore, attribution AttributionSource, deliverer Deliverer, sink OutcomeSink, log *zap.Logger) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	return &Recorder{
		store:       store,
		attribution: attribution,
		deliverer:   deliverer,
		sink:        sink,
		log:         log,
		now:         time.Now,
	}
}

// Track inserts req as a pending event and delivers it once. Only an insert
// failure is returned; delivery and write-back problems leave the event for the scheduler.
func (r *Recorder) Track(ctx context.Context, req *domain.TrackRequest) (*domain.TrackedEvent, error) {
	event := r.newEvent(ctx, req)

	inserted, err := r.store.Insert(ctx, event)
	if err != nil {
		r.log.Error("Failed to insert tracked event, dropping it",
			zap.String("event_id", event.EventID),
			zap.String("event_name", string(event.EventName)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record event: %w", err)
	}

	if !inserted {
		r.log.Info("Duplicate event id, skipping immediate delivery",
			zap.String("event_id", event.EventID))
		stored, err := r.store.GetByID(ctx, event.EventID)
		if err != nil {
			r.log.Warn("Failed to load duplicate event", zap.String("event_id", event.EventID), zap.Error(err))
			return event, nil
		}
		return stored, nil
	}

	result := r.deliverer.Deliver(ctx, event)
	if result.NotConfigured() {
		r.log.Error("Provider not configured, event left pending",
			zap.String("event_id", event.EventID),
			zap.Error(result.Err))
		return event, nil
	}

	r.sink.Record(NewAttempt(event, result, domain.SourceImmediate, r.now()))

	update := domain.StatusUpdate{Status: result.Status, Response: result.Response}
	if err := r.store.UpdateStatus(ctx, event.EventID, update); err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, repository.ErrEventNotFound) {
			level = zap.InfoLevel
		}
		r.log.Log(level, "Failed to write back delivery outcome",
			zap.String("event_id", event.EventID),
			zap.String("status", string(result.Status)),
			zap.Error(err))
		return event, nil
	}

	event.Status = result.Status
	event.ProviderResponse = result.Response
	event.Attempts++

	r.log.Info("Event tracked",
		zap.String("event_id", event.EventID),
		zap.String("event_name", string(event.EventName)),
		zap.String("status", string(event.Status)))

	return event, nil
}

func (r *Recorder) newEvent(ctx context.Context, req *domain.TrackRequest) *domain.TrackedEvent {
	now := r.now().UTC()

	attribution := domain.AttributionContext{Token: req.SessionToken}
	if r.attribution != nil {
		if current := r.attribution.Current(ctx, req.SessionToken); current != nil {
			attribution = *current
		}
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	userData := req.UserData
	if userData.ClientIPAddress == "" {
		userData.ClientIPAddress = req.Client.IPAddress
	}
	if userData.ClientUserAgent == "" {
		userData.ClientUserAgent = req.Client.UserAgent
	}

	return &domain.TrackedEvent{
		EventID:     eventID,
		EventName:   req.EventName,
		OccurredAt:  occurredAt,
		Value:       req.Value,
		Currency:    currency,
		SourceURL:   req.SourceURL,
		Attribution: attribution,
		CustomData:  req.CustomData,
		UserData:    userData,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
