package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/webhook"
)

// WebhookService sends checkout step webhooks and records inbound ones
type WebhookService struct {
	sender WebhookSender
	logs   WebhookLogWriter
	log    *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(sender WebhookSender, logs WebhookLogWriter, log *zap.Logger) *WebhookService {
	return &WebhookService{
		sender: sender,
		logs:   logs,
		log:    log,
	}
}

// Send posts payload to the webhook configured for typ
func (s *WebhookService) Send(ctx context.Context, typ string, payload map[string]any) error {
	t, err := webhook.ParseType(typ)
	if err != nil {
		return err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return s.sender.Send(ctx, t, payload)
}

// Receive records an inbound webhook call in the webhook log
func (s *WebhookService) Receive(ctx context.Context, typ string, payload json.RawMessage) error {
	t, err := webhook.ParseType(typ)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	entry := &domain.WebhookLog{
		WebhookType: string(t),
		Payload:     payload,
		Status:      "received",
	}
	if err := s.logs.InsertWebhookLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to record webhook: %w", err)
	}

	s.log.Info("Webhook received", zap.String("webhook_type", string(t)))
	return nil
}
