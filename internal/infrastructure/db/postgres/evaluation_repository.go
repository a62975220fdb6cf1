package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type EvaluationRepository struct {
	base
	logger zerolog.Logger
}

func NewEvaluationRepository(pool *pgxpool.Pool, logger zerolog.Logger) *EvaluationRepository {
	return &EvaluationRepository{base: base{pool: pool}, logger: logger}
}

const evaluationCols = `id, user_id, evaluator_id, test_type, score, answers, notes, applied_at`

func (r *EvaluationRepository) scan(row pgx.Row) (*domain.Evaluation, error) {
	var (
		e       domain.Evaluation
		answers *string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.EvaluatorID, &e.TestType, &e.Score, &answers, &e.Notes, &e.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEvaluationNotFound
		}
		return nil, err
	}
	e.Answers = decodeStoredAnswers(r.logger, "evaluation", e.ID, answers)
	return &e, nil
}

func (r *EvaluationRepository) Create(ctx context.Context, e *domain.Evaluation) error {
	answers, err := encodeAnswers(e.Answers)
	if err != nil {
		return err
	}
	e.ID = uuid.New()
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO evaluations (id, user_id, evaluator_id, test_type, score, answers, notes, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.EvaluatorID, e.TestType, e.Score, answers, e.Notes, e.AppliedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+evaluationCols+` FROM evaluations WHERE id = $1`, id))
}

func (r *EvaluationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Evaluation, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+evaluationCols+` FROM evaluations WHERE user_id = $1 ORDER BY applied_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	out := []*domain.Evaluation{}
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EvaluationRepository) Latest(ctx context.Context, userID uuid.UUID, professional bool) (*domain.Evaluation, error) {
	q := `SELECT ` + evaluationCols + ` FROM evaluations WHERE user_id = $1 AND evaluator_id IS NULL ORDER BY applied_at DESC LIMIT 1`
	if professional {
		q = `SELECT ` + evaluationCols + ` FROM evaluations WHERE user_id = $1 AND evaluator_id IS NOT NULL ORDER BY applied_at DESC LIMIT 1`
	}
	return r.scan(r.conn(ctx).QueryRow(ctx, q, userID))
}

// encodeAnswers stores null answers as SQL NULL.
func encodeAnswers(a domain.Answer) (*string, error) {
	if a.IsNull() {
		return nil, nil
	}
	s, err := a.Encode()
	if err != nil {
		return nil, domain.InvalidInput("answers: %v", err)
	}
	return &s, nil
}

// decodeStoredAnswers degrades an unreadable stored document to null so one
// corrupt row does not fail the whole read.
func decodeStoredAnswers(logger zerolog.Logger, table string, id uuid.UUID, raw *string) domain.Answer {
	if raw == nil {
		return domain.NullAnswer()
	}
	a, err := domain.ParseAnswers(*raw)
	if err != nil {
		logger.Warn().Err(err).Str("table", table).Str("id", id.String()).Msg("stored answers are not valid JSON")
		return domain.NullAnswer()
	}
	return a
}
