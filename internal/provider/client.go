package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BarkinBalci/attribution-service/internal/config"
)

// ErrNotConfigured is returned when the access token or pixel id is missing
var ErrNotConfigured = errors.New("conversions provider is not configured")

const maxResponseBytes = 1 << 20

// Client posts events to the ads conversions API
type Client struct {
	cfg        config.Provider
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a new provider client. A zero timeout leaves outbound calls unbounded.
func NewClient(cfg config.Provider, log *zap.Logger) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		log:        log,
	}
}

// Configured returns ErrNotConfigured, wrapped with the missing settings, until credentials are set
func (c *Client) Configured() error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return nil
}

// EventsURL returns the endpoint events are posted to
func (c *Client) EventsURL() string {
	return fmt.Sprintf("%s/%s/%s/events",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		c.cfg.APIVersion,
		url.PathEscape(c.cfg.PixelID))
}

// Send posts events in a single request. The raw body is returned whenever one was read,
// so callers can keep it for audit even on failure.
func (c *Client) Send(ctx context.Context, events []EventPayload) (*Response, []byte, error) {
	if err := c.Configured(); err != nil {
		return nil, nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to wait for provider rate limit: %w", err)
	}

	body, err := json.Marshal(request{Data: events, AccessToken: c.cfg.AccessToken})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EventsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send events: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	var parsed Response
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: raw}
		if decodeErr == nil {
			statusErr.API = parsed.Error
		}
		c.log.Debug("Provider rejected events",
			zap.Int("status_code", resp.StatusCode),
			zap.Int("event_count", len(events)))
		return nil, raw, statusErr
	}

	if decodeErr != nil {
		return nil, raw, fmt.Errorf("failed to decode provider response: %w", decodeErr)
	}

	if parsed.Error != nil {
		return &parsed, raw, parsed.Error
	}

	return &parsed, raw, nil
}
