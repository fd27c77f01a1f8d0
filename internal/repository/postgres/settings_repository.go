package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// SettingsRepository reads checkout_settings and writes webhook_logs
type SettingsRepository struct {
	client *Client
	log    *zap.Logger
}

// NewSettingsRepository creates a new Postgres settings repository
func NewSettingsRepository(client *Client, log *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		client: client,
		log:    log,
	}
}

// InitSchema creates checkout_settings and webhook_logs if they don't exist
func (r *SettingsRepository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS checkout_settings (
		id BIGSERIAL PRIMARY KEY,
		webhook_email TEXT NOT NULL DEFAULT '',
		webhook_customer TEXT NOT NULL DEFAULT '',
		webhook_address TEXT NOT NULL DEFAULT '',
		webhook_payment TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS webhook_logs (
		id BIGSERIAL PRIMARY KEY,
		webhook_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	if _, err := r.client.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create settings tables: %w", err)
	}

	r.log.Info("Postgres settings schema initialized")
	return nil
}

// WebhookURLs returns the configured webhook targets. Missing settings yield empty URLs.
func (r *SettingsRepository) WebhookURLs(ctx context.Context) (*domain.WebhookURLs, error) {
	var urls domain.WebhookURLs

	err := r.client.Pool().QueryRow(ctx, `
		SELECT webhook_email, webhook_customer, webhook_address, webhook_payment
		FROM checkout_settings
		ORDER BY id
		LIMIT 1`,
	).Scan(&urls.Email, &urls.Customer, &urls.Address, &urls.Payment)
	if errors.Is(err, pgx.ErrNoRows) {
		return &urls, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook settings: %w", err)
	}

	return &urls, nil
}

// InsertWebhookLog records an inbound webhook call
func (r *SettingsRepository) InsertWebhookLog(ctx context.Context, entry *domain.WebhookLog) error {
	_, err := r.client.Pool().Exec(ctx, `
		INSERT INTO webhook_logs (webhook_type, payload, status)
		VALUES ($1, $2, $3)`,
		entry.WebhookType, []byte(entry.Payload), entry.Status)
	if err != nil {
		return fmt.Errorf("failed to insert %s webhook log: %w", entry.WebhookType, err)
	}

	return nil
}
