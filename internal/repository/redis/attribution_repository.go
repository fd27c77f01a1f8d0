package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const keyPrefix = "attribution:"

// AttributionRepository stores attribution contexts as JSON strings with a sliding TTL
type AttributionRepository struct {
	client goredis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

// NewAttributionRepository creates a new Redis attribution repository. A zero ttl keeps keys forever.
func NewAttributionRepository(client goredis.Cmdable, ttl time.Duration, log *zap.Logger) *AttributionRepository {
	return &AttributionRepository{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func key(token string) string {
	return keyPrefix + token
}

// Load returns the stored context, or nil when the token has none
func (r *AttributionRepository) Load(ctx context.Context, token string) (*domain.AttributionContext, error) {
	if token == "" {
		return nil, nil
	}

	data, err := r.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attribution %s: %w", token, err)
	}

	var attribution domain.AttributionContext
	if err := json.Unmarshal(data, &attribution); err != nil {
		return nil, fmt.Errorf("failed to decode attribution %s: %w", token, err)
	}
	if attribution.Token == "" {
		attribution.Token = token
	}

	return &attribution, nil
}

// Save writes the context under its token and refreshes the TTL
func (r *AttributionRepository) Save(ctx context.Context, attribution *domain.AttributionContext) error {
	if attribution.Token == "" {
		return errors.New("attribution token is empty")
	}

	data, err := json.Marshal(attribution)
	if err != nil {
		return fmt.Errorf("failed to encode attribution: %w", err)
	}

	if err := r.client.Set(ctx, key(attribution.Token), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save attribution %s: %w", attribution.Token, err)
	}

	return nil
}

// Delete removes the stored context. Deleting a missing token is not an error.
func (r *AttributionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete attribution %s: %w", token, err)
	}

	r.log.Debug("Attribution context deleted", zap.String("token", token))
	return nil
}

// Ping checks if the Redis connection is alive
func (r *AttributionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
