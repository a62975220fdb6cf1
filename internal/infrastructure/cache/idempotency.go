// Package cache holds the in-process idempotency store used when no Redis
// address is configured.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IdempotencyStore struct {
	c *gocache.Cache
}

// NewIdempotencyStore returns a store whose entries default to ttl and are
// swept every cleanup interval.
func NewIdempotencyStore(ttl, cleanup time.Duration) *IdempotencyStore {
	return &IdempotencyStore{c: gocache.New(ttl, cleanup)}
}

func (s *IdempotencyStore) Lookup(_ context.Context, scope, key string) (uuid.UUID, bool, error) {
	v, ok := s.c.Get(scope + ":" + key)
	if !ok {
		return uuid.Nil, false, nil
	}
	id, ok := v.(uuid.UUID)
	return id, ok, nil
}

// Remember keeps the first id stored for a key.
func (s *IdempotencyStore) Remember(_ context.Context, scope, key string, id uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	// Add fails when the key is present, which is the wanted first-write-wins.
	_ = s.c.Add(scope+":"+key, id, ttl)
	return nil
}
