package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/queue"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// maxHourlyRange is the widest time range GetMetrics groups by hour
const maxHourlyRange = 90 * 24 * time.Hour

// EventService accepts tracked events and answers status and metrics queries
type EventService struct {
	publisher   queue.QueuePublisher
	events      EventReader
	deliveryLog repository.DeliveryLogRepository
	enricher    ClientEnricher
	log         *zap.Logger
	now         func() time.Time
}

// NewEventService creates a new event service
func NewEventService(publisher queue.QueuePublisher, events EventReader, deliveryLog repository.DeliveryLogRepository, enricher ClientEnricher, log *zap.Logger) *EventService {
	return &EventService{
		publisher:   publisher,
		events:      events,
		deliveryLog: deliveryLog,
		enricher:    enricher,
		log:         log,
		now:         time.Now,
	}
}

// TrackEvent validates, hashes and enriches one event and hands it to the queue.
// It returns the event id the event will be delivered under.
func (s *EventService) TrackEvent(ctx context.Context, req *dto.TrackEventRequest, client ClientMeta) (string, error) {
	name := domain.EventName(req.EventName)
	if !name.Valid() {
		return "", fmt.Errorf("%w: unknown event_name %q", ErrInvalidRequest, req.EventName)
	}

	now := s.now()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	if occurredAt.After(now.Add(time.Second)) {
		s.log.Warn("Timestamp validation failed: future timestamp",
			zap.Time("occurred_at", occurredAt),
			zap.Time("current_time", now),
			zap.String("event_name", req.EventName))
		return "", fmt.Errorf("%w: occurred_at cannot be in the future", ErrInvalidRequest)
	}

	if req.Value != nil && *req.Value < 0 {
		return "", fmt.Errorf("%w: value cannot be negative", ErrInvalidRequest)
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	info := domain.ClientInfo{IPAddress: client.IPAddress, UserAgent: client.UserAgent}
	if s.enricher != nil {
		info = s.enricher.Enrich(client.UserAgent, client.IPAddress)
	}

	trackReq := &domain.TrackRequest{
		EventID:      eventID,
		EventName:    name,
		OccurredAt:   occurredAt.UTC(),
		SessionToken: req.SessionToken,
		Value:        req.Value,
		Currency:     req.Currency,
		SourceURL:    req.SourceURL,
		CustomData: domain.CustomData{
			ContentIDs:      req.ContentIDs,
			ContentName:     req.ContentName,
			ContentType:     req.ContentType,
			ContentCategory: req.ContentCategory,
			NumItems:        req.NumItems,
			OrderID:         req.OrderID,
			CustomerID:      req.CustomerID,
			TransactionID:   req.TransactionID,
		},
		UserData: userData(req, info),
		Client:   info,
	}

	if err := s.publisher.PublishTrackRequest(ctx, trackReq); err != nil {
		return "", fmt.Errorf("failed to publish track request to queue: %w", err)
	}

	return eventID, nil
}

// userData hashes the identity of req. Location the customer did not type is
// taken from the GeoIP lookup.
func userData(req *dto.TrackEventRequest, info domain.ClientInfo) domain.UserData {
	identity := delivery.Identity{
		Email:      req.Email,
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
		Country:    req.Country,
		ExternalID: req.ExternalID,
	}
	if identity.Country == "" {
		identity.Country = info.Country
	}
	if identity.City == "" {
		identity.City = info.City
	}

	hashed := identity.Hash()
	return domain.UserData{
		Emails:      hashed.Emails,
		Phones:      hashed.Phones,
		FirstNames:  hashed.FirstNames,
		LastNames:   hashed.LastNames,
		Cities:      hashed.Cities,
		States:      hashed.States,
		ZipCodes:    hashed.ZipCodes,
		Countries:   hashed.Countries,
		ExternalIDs: hashed.ExternalIDs,
		FBP:         req.FBP,
	}
}

// GetEvent returns the delivery state of one event
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*dto.EventStatusResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &dto.EventStatusResponse{
		EventID:          event.EventID,
		EventName:        string(event.EventName),
		Status:           string(event.Status),
		Attempts:         event.Attempts,
		OccurredAt:       event.OccurredAt,
		UTMSource:        event.Attribution.UTMSource,
		UTMCampaign:      event.Attribution.UTMCampaign,
		ProviderResponse: event.ProviderResponse,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}, nil
}

// GetMetrics retrieves aggregated delivery metrics from the delivery log
func (s *EventService) GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error) {
	if req.From > req.To {
		s.log.Warn("Invalid time range for metrics",
			zap.Int64("from", req.From),
			zap.Int64("to", req.To),
			zap.String("event_name", req.EventName))
		return nil, fmt.Errorf("%w: from timestamp must be less than or equal to to timestamp", ErrInvalidRequest)
	}

	if req.GroupBy != "" {
		if !validGroupBy[req.GroupBy] {
			s.log.Warn("Invalid group_by value", zap.String("group_by", req.GroupBy))
			return nil, fmt.Errorf("%w: invalid group_by value: %s (supported: utm_source, utm_campaign, status, hour, day)", ErrInvalidRequest, req.GroupBy)
		}

		rangeDuration := time.Duration(req.To-req.From) * time.Second
		if req.GroupBy == "hour" && rangeDuration > maxHourlyRange {
			days := int64(rangeDuration / (24 * time.Hour))
			s.log.Warn("Large time range for hourly grouping", zap.Int64("range_days", days))
			return nil, fmt.Errorf("%w: time range too large for hourly grouping (max 90 days, got %d days)", ErrInvalidRequest, days)
		}
	}

	s.log.Info("Querying metrics",
		zap.String("event_name", req.EventName),
		zap.Int64("from", req.From),
		zap.Int64("to", req.To),
		zap.String("group_by", req.GroupBy))

	result, err := s.deliveryLog.GetMetrics(ctx, repository.MetricsQuery{
		EventName: req.EventName,
		From:      req.From,
		To:        req.To,
		GroupBy:   req.GroupBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics from repository: %w", err)
	}

	response := &dto.GetMetricsResponse{
		EventName:     req.EventName,
		From:          req.From,
		To:            req.To,
		TotalAttempts: result.TotalAttempts,
		UniqueEvents:  result.UniqueEvents,
		SentEvents:    result.SentEvents,
		SentValue:     result.SentValue,
		GroupBy:       req.GroupBy,
		Groups:        make([]dto.MetricsGroupData, 0, len(result.Groups)),
	}

	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.MetricsGroupData{
			GroupValue:    group.GroupValue,
			TotalAttempts: group.TotalAttempts,
			SentEvents:    group.SentEvents,
		})
	}

	return response, nil
}

var validGroupBy = map[string]bool{
	"utm_source":   true,
	"utm_campaign": true,
	"status":       true,
	"hour":         true,
	"day":          true,
}
