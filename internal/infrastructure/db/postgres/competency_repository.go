package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type CompetencyRepository struct {
	base
	logger zerolog.Logger
}

func NewCompetencyRepository(pool *pgxpool.Pool, logger zerolog.Logger) *CompetencyRepository {
	return &CompetencyRepository{base: base{pool: pool}, logger: logger}
}

func (r *CompetencyRepository) Create(ctx context.Context, c *domain.CompetencyAssessment) error {
	answers, err := c.Answers.Encode()
	if err != nil {
		return domain.InvalidInput("answers: %v", err)
	}
	c.ID = uuid.New()
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO competency_assessments (id, user_id, f1_average, f2_average, f3_average, f4_average,
			total_score, answers, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.UserID, c.F1Average, c.F2Average, c.F3Average, c.F4Average, c.TotalScore, answers, c.AppliedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert competency assessment: %w", err)
	}
	return nil
}

func (r *CompetencyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CompetencyAssessment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, user_id, f1_average, f2_average, f3_average, f4_average, total_score, answers, applied_at
		FROM competency_assessments WHERE user_id = $1 ORDER BY applied_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list competency assessments: %w", err)
	}
	defer rows.Close()

	out := []*domain.CompetencyAssessment{}
	for rows.Next() {
		var (
			c       domain.CompetencyAssessment
			answers string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.F1Average, &c.F2Average, &c.F3Average, &c.F4Average,
			&c.TotalScore, &answers, &c.AppliedAt); err != nil {
			return nil, err
		}
		c.Answers = decodeStoredAnswers(r.logger, "competency_assessments", c.ID, &answers)
		out = append(out, &c)
	}
	return out, rows.Err()
}
