package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type CreateEvaluationInput struct {
	UserID         uuid.UUID
	TestType       string
	Score          float64
	Answers        domain.Answer
	Notes          *string
	IdempotencyKey string
}

type CreateCompetencyInput struct {
	Answers    domain.Answer
	F1Average  float64
	F2Average  float64
	F3Average  float64
	F4Average  float64
	TotalScore float64
}

// EvaluationResult reports whether a create call replayed an earlier
// submission with the same idempotency key.
type EvaluationResult struct {
	Evaluation     *domain.Evaluation
	AlreadyExisted bool
}

type EvaluationService interface {
	Create(ctx context.Context, caller domain.Identity, in CreateEvaluationInput) (*EvaluationResult, error)
	List(ctx context.Context, caller domain.Identity, userID uuid.UUID) ([]*domain.Evaluation, error)
	Compare(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Comparison, error)
	CreateCompetency(ctx context.Context, caller domain.Identity, in CreateCompetencyInput) (*domain.CompetencyAssessment, error)
	ListCompetencies(ctx context.Context, caller domain.Identity, userID uuid.UUID) ([]*domain.CompetencyAssessment, error)
}
