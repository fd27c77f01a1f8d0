package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

var (
	ErrInvalidType    = errors.New("invalid webhook type")
	ErrNotConfigured  = errors.New("webhook URL not configured")
	ErrInvalidURL     = errors.New("webhook URL is not an absolute http(s) URL")
	ErrRateLimited    = errors.New("webhook rate limit exceeded")
	ErrInvalidProduct = errors.New("product data is invalid for total price calculation")
)

// Type is a checkout step that notifies a webhook
type Type string

const (
	TypeEmail    Type = "email"
	TypeCustomer Type = "customer"
	TypeAddress  Type = "address"
	TypePayment  Type = "payment"
)

// ParseType validates a webhook type name
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeEmail, TypeCustomer, TypeAddress, TypePayment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// URLSource returns the webhook targets configured for the checkout
type URLSource interface {
	WebhookURLs(ctx context.Context) (*domain.WebhookURLs, error)
}

// Config configures a Notifier
type Config struct {
	Key       string
	PerMinute int
	Timeout   time.Duration
}

// Notifier posts checkout step payloads to the configured webhooks
type Notifier struct {
	urls       URLSource
	httpClient *http.Client
	cfg        Config
	log        *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	limiters map[Type]*rate.Limiter
}

// NewNotifier creates a new notifier
func NewNotifier(urls URLSource, cfg Config, log *zap.Logger) *Notifier {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 60
	}
	return &Notifier{
		urls:       urls,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		limiters:   make(map[Type]*rate.Limiter),
	}
}

// Send posts payload to the webhook of typ. The payload gains product_info and
// timestamp; payment payloads also gain total_price.
func (n *Notifier) Send(ctx context.Context, typ Type, payload map[string]any) error {
	urls, err := n.urls.WebhookURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load webhook URLs: %w", err)
	}

	target, err := validURL(urlFor(urls, typ))
	if err != nil {
		return fmt.Errorf("%s webhook: %w", typ, err)
	}

	body := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		body[k] = v
	}
	body["product_info"] = payload["product"]
	body["timestamp"] = n.now().UTC().Format("2006-01-02T15:04:05.000Z")

	if typ == TypePayment {
		total, err := TotalPrice(payload)
		if err != nil {
			return err
		}
		body["total_price"] = total
	}

	if !n.limiter(typ).Allow() {
		n.log.Warn("Webhook rate limit exceeded", zap.String("webhook_type", string(typ)))
		return fmt.Errorf("%s webhook: %w", typ, ErrRateLimited)
	}

	return n.post(ctx, typ, target, body)
}

func (n *Notifier) post(ctx context.Context, typ Type, target string, body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s webhook payload: %w", typ, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create %s webhook request: %w", typ, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.cfg.Key)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s webhook: %w", typ, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s webhook returned status %d", typ, resp.StatusCode)
	}

	n.log.Info("Webhook sent",
		zap.String("webhook_type", string(typ)),
		zap.Int("status_code", resp.StatusCode))
	return nil
}

func (n *Notifier) limiter(typ Type) *rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()

	lim, ok := n.limiters[typ]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n.cfg.PerMinute)), n.cfg.PerMinute)
		n.limiters[typ] = lim
	}
	return lim
}

func urlFor(urls *domain.WebhookURLs, typ Type) string {
	switch typ {
	case TypeEmail:
		return urls.Email
	case TypeCustomer:
		return urls.Customer
	case TypeAddress:
		return urls.Address
	case TypePayment:
		return urls.Payment
	}
	return ""
}

func validURL(raw string) (string, error) {
	if raw == "" {
		return "", ErrNotConfigured
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

// TotalPrice applies the order bump and upsell discounts selected in a payment payload
// to product.price. Discounts are percentages.
func TotalPrice(payload map[string]any) (float64, error) {
	product, ok := payload["product"].(map[string]any)
	if !ok {
		return 0, ErrInvalidProduct
	}
	price, ok := product["price"].(float64)
	if !ok {
		return 0, ErrInvalidProduct
	}

	total := price
	if selected(payload["order_bump"]) {
		if d, ok := product["order_bump_discount"].(float64); ok && d != 0 {
			total *= 1 - d/100
		}
	}
	if selected(payload["upsell"]) {
		if d, ok := product["upsell_discount"].(float64); ok && d != 0 {
			total *= 1 - d/100
		}
	}
	return total, nil
}

func selected(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
