package service

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
)

// AttributionService exposes session attribution capture over the API
type AttributionService struct {
	capturer Capturer
	log      *zap.Logger
}

// NewAttributionService creates a new attribution service
func NewAttributionService(capturer Capturer, log *zap.Logger) *AttributionService {
	return &AttributionService{
		capturer: capturer,
		log:      log,
	}
}

// Capture merges the landing page parameters of req into the session of req.Token.
// Explicit query values win over those parsed from the page URL.
func (s *AttributionService) Capture(ctx context.Context, req *dto.CaptureRequest) *dto.AttributionResponse {
	query := url.Values{}
	if req.PageURL != "" {
		query = attribution.QueryFromURL(req.PageURL)
	}
	for k, v := range req.Query {
		query.Set(k, v)
	}

	ac := s.capturer.Capture(ctx, req.Token, query)

	s.log.Debug("Attribution captured",
		zap.String("token", ac.Token),
		zap.String("utm_source", domain.StringValue(ac.UTMSource)),
		zap.String("utm_campaign", domain.StringValue(ac.UTMCampaign)))

	return toAttributionResponse(ac)
}

// Get returns the stored context of token
func (s *AttributionService) Get(ctx context.Context, token string) (*dto.AttributionResponse, error) {
	ac := s.capturer.Current(ctx, token)
	if ac == nil {
		return nil, fmt.Errorf("%w: no attribution stored for token", ErrNotFound)
	}
	return toAttributionResponse(ac), nil
}

// Reset clears the stored context of token
func (s *AttributionService) Reset(ctx context.Context, token string) error {
	if err := s.capturer.Reset(ctx, token); err != nil {
		return fmt.Errorf("failed to reset attribution: %w", err)
	}
	return nil
}

func toAttributionResponse(ac *domain.AttributionContext) *dto.AttributionResponse {
	return &dto.AttributionResponse{
		Token:       ac.Token,
		UTMSource:   ac.UTMSource,
		UTMMedium:   ac.UTMMedium,
		UTMCampaign: ac.UTMCampaign,
		UTMTerm:     ac.UTMTerm,
		UTMContent:  ac.UTMContent,
		FBCLID:      ac.ClickIDs.FBCLID,
		GCLID:       ac.ClickIDs.GCLID,
		TTCLID:      ac.ClickIDs.TTCLID,
	}
}
