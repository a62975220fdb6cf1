package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

// idempotency wraps an optional IdempotencyStore. Store failures are logged
// and treated as a miss so that writes never depend on the store.
type idempotency struct {
	store  ports.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

func newIdempotency(store ports.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) idempotency {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return idempotency{store: store, ttl: ttl, logger: logger}
}

func (i idempotency) lookup(ctx context.Context, scope, key string) (uuid.UUID, bool) {
	if i.store == nil || key == "" {
		return uuid.Nil, false
	}
	id, ok, err := i.store.Lookup(ctx, scope, key)
	if err != nil {
		i.logger.Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
		return uuid.Nil, false
	}
	return id, ok
}

func (i idempotency) remember(ctx context.Context, scope, key string, id uuid.UUID) {
	if i.store == nil || key == "" {
		return
	}
	if err := i.store.Remember(ctx, scope, key, id, i.ttl); err != nil {
		i.logger.Warn().Err(err).Str("scope", scope).Msg("idempotency remember failed")
	}
}
