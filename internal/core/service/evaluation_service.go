package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

type EvaluationService struct {
	users       ports.UserRepository
	evaluations ports.EvaluationRepository
	competency  ports.CompetencyRepository
	idem        idempotency
	logger      zerolog.Logger
}

func NewEvaluationService(
	users ports.UserRepository,
	evaluations ports.EvaluationRepository,
	competency ports.CompetencyRepository,
	store ports.IdempotencyStore,
	idempotencyTTL time.Duration,
	logger zerolog.Logger,
) *EvaluationService {
	return &EvaluationService{
		users:       users,
		evaluations: evaluations,
		competency:  competency,
		idem:        newIdempotency(store, idempotencyTTL, logger),
		logger:      logger,
	}
}

// Create stores a questionnaire submission. A patient may only rate
// themselves and is recorded with no evaluator; a professional is recorded
// as the evaluator of the given user.
func (s *EvaluationService) Create(ctx context.Context, caller domain.Identity, in ports.CreateEvaluationInput) (*ports.EvaluationResult, error) {
	testType := strings.TrimSpace(in.TestType)
	switch {
	case in.UserID == uuid.Nil:
		return nil, domain.InvalidInput("user_id is required")
	case testType == "":
		return nil, domain.InvalidInput("test_type is required")
	case !domain.ValidScore(in.Score):
		return nil, domain.InvalidInput("score must be a finite number")
	}
	if err := in.Answers.RequireObject(true); err != nil {
		return nil, err
	}

	e := &domain.Evaluation{
		UserID:    in.UserID,
		TestType:  testType,
		Score:     in.Score,
		Answers:   in.Answers,
		Notes:     in.Notes,
		AppliedAt: time.Now().UTC(),
	}
	switch {
	case caller.IsPatient():
		if in.UserID != caller.UserID {
			return nil, domain.ErrForbidden
		}
	case caller.IsProfessional():
		evaluator := caller.UserID
		e.EvaluatorID = &evaluator
	default:
		return nil, domain.ErrForbidden
	}

	scope := "evaluation:" + caller.UserID.String()
	if id, ok := s.idem.lookup(ctx, scope, in.IdempotencyKey); ok {
		existing, err := s.evaluations.FindByID(ctx, id)
		if err == nil {
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("evaluation_id", id.String()).Msg("idempotent replay")
			return &ports.EvaluationResult{Evaluation: existing, AlreadyExisted: true}, nil
		}
		if !errors.Is(err, domain.ErrEvaluationNotFound) {
			return nil, err
		}
	}

	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	if err := s.evaluations.Create(ctx, e); err != nil {
		s.logger.Error().Err(err).Msg("failed to create evaluation")
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	s.idem.remember(ctx, scope, in.IdempotencyKey, e.ID)

	s.logger.Info().
		Str("evaluation_id", e.ID.String()).
		Str("user_id", e.UserID.String()).
		Bool("self_assessment", e.IsSelfAssessment()).
		Msg("evaluation created")

	return &ports.EvaluationResult{Evaluation: e}, nil
}

// List returns the user's evaluations, most recent first.
func (s *EvaluationService) List(ctx context.Context, caller domain.Identity, userID uuid.UUID) ([]*domain.Evaluation, error) {
	if !caller.CanRead(userID) {
		return nil, domain.ErrForbidden
	}
	return s.evaluations.ListByUser(ctx, userID)
}

// Compare pairs the latest self-assessment with the latest professional
// assessment of userID.
func (s *EvaluationService) Compare(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Comparison, error) {
	if !caller.CanRead(userID) {
		return nil, domain.ErrForbidden
	}
	self, err := s.latest(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	pro, err := s.latest(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return domain.Compare(self, pro)
}

func (s *EvaluationService) latest(ctx context.Context, userID uuid.UUID, professional bool) (*domain.Evaluation, error) {
	e, err := s.evaluations.Latest(ctx, userID, professional)
	if errors.Is(err, domain.ErrEvaluationNotFound) {
		return nil, nil
	}
	return e, err
}

// CreateCompetency stores a competency test a professional took about themselves.
func (s *EvaluationService) CreateCompetency(ctx context.Context, caller domain.Identity, in ports.CreateCompetencyInput) (*domain.CompetencyAssessment, error) {
	if !caller.IsProfessional() {
		return nil, domain.ErrForbidden
	}
	c := &domain.CompetencyAssessment{
		UserID:     caller.UserID,
		F1Average:  in.F1Average,
		F2Average:  in.F2Average,
		F3Average:  in.F3Average,
		F4Average:  in.F4Average,
		TotalScore: in.TotalScore,
		Answers:    in.Answers,
		AppliedAt:  time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.competency.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create competency assessment: %w", err)
	}
	s.logger.Info().Str("assessment_id", c.ID.String()).Str("user_id", c.UserID.String()).Msg("competency assessment created")
	return c, nil
}

func (s *EvaluationService) ListCompetencies(ctx context.Context, caller domain.Identity, userID uuid.UUID) ([]*domain.CompetencyAssessment, error) {
	if !caller.CanRead(userID) {
		return nil, domain.ErrForbidden
	}
	return s.competency.ListByUser(ctx, userID)
}
