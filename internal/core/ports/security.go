package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns false, nil on a mismatch and an error only for a malformed hash.
	Verify(password, encoded string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID uuid.UUID, role string) (string, error)
}

// TokenDecoder validates a session token and returns the caller identity,
// or domain.ErrUnauthorized.
type TokenDecoder interface {
	Decode(token string) (domain.Identity, error)
}

// IdempotencyStore remembers which record a client-supplied Idempotency-Key
// produced so that a retried submission returns the original record.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (uuid.UUID, bool, error)
	Remember(ctx context.Context, scope, key string, id uuid.UUID, ttl time.Duration) error
}
