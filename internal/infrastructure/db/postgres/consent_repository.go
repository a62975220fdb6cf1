package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type ConsentRepository struct{ base }

func NewConsentRepository(pool *pgxpool.Pool) *ConsentRepository {
	return &ConsentRepository{base{pool: pool}}
}

func (r *ConsentRepository) Create(ctx context.Context, c *domain.Consent) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consents (id, user_id, version, text_hash, ip_address, user_agent, accepted_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		c.ID, c.UserID, c.Version, c.TextHash, c.IPAddress, c.UserAgent, c.AcceptedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert consent: %w", err)
	}
	return nil
}
