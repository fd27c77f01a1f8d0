package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

const eventColumns = `id, event_id, event_name, occurred_at, value::float8, currency, source_url,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content, fbclid, gclid, ttclid, session_token,
	custom_data, user_data, status, attempts, provider_response, created_at, updated_at`

// EventRepository implements repository.EventRepository on the events table
type EventRepository struct {
	client *Client
	log    *zap.Logger
}

// NewEventRepository creates a new Postgres event repository
func NewEventRepository(client *Client, log *zap.Logger) *EventRepository {
	return &EventRepository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the events table and its sweep index
func (r *EventRepository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL UNIQUE,
		event_name TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		value NUMERIC(14, 2),
		currency TEXT NOT NULL DEFAULT 'BRL',
		source_url TEXT NOT NULL DEFAULT '',
		utm_source TEXT,
		utm_medium TEXT,
		utm_campaign TEXT,
		utm_term TEXT,
		utm_content TEXT,
		fbclid TEXT,
		gclid TEXT,
		ttclid TEXT,
		session_token TEXT NOT NULL DEFAULT '',
		custom_data JSONB NOT NULL DEFAULT '{}',
		user_data JSONB NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'sent', 'failed')),
		attempts INTEGER NOT NULL DEFAULT 0,
		provider_response JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS events_unresolved_idx ON events (occurred_at, id) WHERE status <> 'sent';
	`

	if _, err := r.client.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	r.log.Info("Postgres events schema initialized")
	return nil
}

// Insert stores a pending event. A duplicate event_id is not an error; it reports false.
func (r *EventRepository) Insert(ctx context.Context, event *domain.TrackedEvent) (bool, error) {
	customData, err := json.Marshal(event.CustomData)
	if err != nil {
		return false, fmt.Errorf("failed to marshal custom data: %w", err)
	}
	userData, err := json.Marshal(event.UserData)
	if err != nil {
		return false, fmt.Errorf("failed to marshal user data: %w", err)
	}

	attribution := event.Attribution
	tag, err := r.client.Pool().Exec(ctx, `
		INSERT INTO events (
			event_id, event_name, occurred_at, value, currency, source_url,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content, fbclid, gclid, ttclid, session_token,
			custom_data, user_data, status
		) VALUES ($1, $2, $3, $4::float8, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (event_id) DO NOTHING`,
		event.EventID,
		string(event.EventName),
		event.OccurredAt,
		event.Value,
		event.Currency,
		event.SourceURL,
		attribution.UTMSource,
		attribution.UTMMedium,
		attribution.UTMCampaign,
		attribution.UTMTerm,
		attribution.UTMContent,
		attribution.ClickIDs.FBCLID,
		attribution.ClickIDs.GCLID,
		attribution.ClickIDs.TTCLID,
		attribution.Token,
		customData,
		userData,
		string(event.Status),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event %s: %w", event.EventID, err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateStatus writes a delivery outcome. Rows already sent are never touched.
func (r *EventRepository) UpdateStatus(ctx context.Context, eventID string, update domain.StatusUpdate) error {
	if update.Status != domain.StatusSent && update.Status != domain.StatusFailed {
		return fmt.Errorf("invalid status update to %q", update.Status)
	}

	var response []byte
	if len(update.Response) > 0 {
		response = update.Response
	}

	tag, err := r.client.Pool().Exec(ctx, `
		UPDATE events
		SET status = $2, provider_response = $3, attempts = attempts + 1, updated_at = now()
		WHERE event_id = $1 AND status <> 'sent'`,
		eventID, string(update.Status), response)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no unresolved event %s: %w", eventID, repository.ErrEventNotFound)
	}

	return nil
}

// ListUnresolved returns pending and failed events, oldest occurrence first
func (r *EventRepository) ListUnresolved(ctx context.Context, limit, maxAttempts int) ([]*domain.TrackedEvent, error) {
	statuses := make([]string, len(domain.UnresolvedStatuses))
	for i, s := range domain.UnresolvedStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.client.Pool().Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status = ANY($1) AND ($3::int <= 0 OR attempts < $3::int)
		ORDER BY occurred_at ASC, id ASC
		LIMIT $2`,
		statuses, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved events: %w", err)
	}
	defer rows.Close()

	var events []*domain.TrackedEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unresolved events: %w", err)
	}

	return events, nil
}

// GetByID returns the event with the given event_id
func (r *EventRepository) GetByID(ctx context.Context, eventID string) (*domain.TrackedEvent, error) {
	row := r.client.Pool().QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, eventID)

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, repository.ErrEventNotFound)
	}
	if err != nil {
		return nil, err
	}

	return event, nil
}

// Ping checks if the Postgres connection is alive
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.client.Pool().Ping(ctx)
}

func scanEvent(row pgx.Row) (*domain.TrackedEvent, error) {
	var (
		event                domain.TrackedEvent
		eventName, status    string
		customData, userData []byte
		providerResponse     []byte
	)

	err := row.Scan(
		&event.ID,
		&event.EventID,
		&eventName,
		&event.OccurredAt,
		&event.Value,
		&event.Currency,
		&event.SourceURL,
		&event.Attribution.UTMSource,
		&event.Attribution.UTMMedium,
		&event.Attribution.UTMCampaign,
		&event.Attribution.UTMTerm,
		&event.Attribution.UTMContent,
		&event.Attribution.ClickIDs.FBCLID,
		&event.Attribution.ClickIDs.GCLID,
		&event.Attribution.ClickIDs.TTCLID,
		&event.Attribution.Token,
		&customData,
		&userData,
		&status,
		&event.Attempts,
		&providerResponse,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	event.EventName = domain.EventName(eventName)
	event.Status = domain.Status(status)
	if len(providerResponse) > 0 {
		event.ProviderResponse = providerResponse
	}

	if err := json.Unmarshal(customData, &event.CustomData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom data of %s: %w", event.EventID, err)
	}
	if err := json.Unmarshal(userData, &event.UserData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user data of %s: %w", event.EventID, err)
	}

	return &event, nil
}
