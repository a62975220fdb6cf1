package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IdempotencyStore maps Idempotency-Key headers to the record they created.
// Key format: idempotency:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency lookup: stored value %q: %w", raw, err)
	}
	return id, true, nil
}

// Remember keeps the first id stored for a key; later calls do not overwrite it.
func (s *IdempotencyStore) Remember(ctx context.Context, scope, key string, id uuid.UUID, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, s.key(scope, key), id.String(), ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}
