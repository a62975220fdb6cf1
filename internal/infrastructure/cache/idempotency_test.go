package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore(t *testing.T) {
	store := NewIdempotencyStore(time.Hour, time.Minute)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	_, ok, err := store.Lookup(ctx, "plan:a", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Remember(ctx, "plan:a", "k", first, 0))
	require.NoError(t, store.Remember(ctx, "plan:a", "k", second, 0))

	got, ok, err := store.Lookup(ctx, "plan:a", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, got)

	_, ok, _ = store.Lookup(ctx, "plan:b", "k")
	assert.False(t, ok)
}

func TestIdempotencyStore_Expiry(t *testing.T) {
	store := NewIdempotencyStore(time.Hour, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "evaluation:a", "k", uuid.New(), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := store.Lookup(ctx, "evaluation:a", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
