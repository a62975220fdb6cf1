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

type PlanService struct {
	users  ports.UserRepository
	plans  ports.PlanRepository
	tx     ports.Transactor
	idem   idempotency
	logger zerolog.Logger
}

func NewPlanService(
	users ports.UserRepository,
	plans ports.PlanRepository,
	tx ports.Transactor,
	store ports.IdempotencyStore,
	idempotencyTTL time.Duration,
	logger zerolog.Logger,
) *PlanService {
	return &PlanService{
		users:  users,
		plans:  plans,
		tx:     tx,
		idem:   newIdempotency(store, idempotencyTTL, logger),
		logger: logger,
	}
}

// Create replaces the patient's active plan. Locking the patient row,
// closing the previous active plans and inserting the new plan with its
// objectives happen in one transaction, so concurrent calls for the same
// patient serialize and leave exactly one active plan.
func (s *PlanService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePlanInput) (*ports.PlanResult, error) {
	if !caller.IsProfessional() {
		return nil, domain.ErrForbidden
	}
	if in.PatientID == uuid.Nil {
		return nil, domain.InvalidInput("patient_id is required")
	}

	now := time.Now().UTC()
	plan := &domain.WorkPlan{
		PatientID:          in.PatientID,
		ProfessionalID:     caller.UserID,
		MainObjective:      strings.TrimSpace(in.MainObjective),
		ExecutionPlan:      in.ExecutionPlan,
		RequiredResources:  in.RequiredResources,
		AssociatedEmotions: in.AssociatedEmotions,
		State:              domain.PlanActive,
		CreatedAt:          now,
		Objectives:         make([]domain.Objective, 0, len(in.Objectives)),
	}
	for i, o := range in.Objectives {
		plan.Objectives = append(plan.Objectives, domain.Objective{
			Position:      i,
			Description:   o.Description,
			Activity:      o.Activity,
			Resources:     o.Resources,
			Schedule:      o.Schedule,
			FollowUpDate:  o.FollowUpDate,
			Importance:    o.Importance,
			Feasibility:   o.Feasibility,
			Clarity:       o.Clarity,
			Capability:    o.Capability,
			Value:         o.Value,
			FollowUpNotes: o.FollowUpNotes,
			Completion:    o.Completion,
			UpdatedAt:     now,
		})
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	scope := "plan:" + caller.UserID.String()
	if id, ok := s.idem.lookup(ctx, scope, in.IdempotencyKey); ok {
		existing, err := s.plans.FindByID(ctx, id)
		if err == nil {
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("plan_id", id.String()).Msg("idempotent replay")
			return &ports.PlanResult{Plan: existing, AlreadyExisted: true}, nil
		}
		if !errors.Is(err, domain.ErrPlanNotFound) {
			return nil, err
		}
	}

	var closed int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.LockPatient(ctx, in.PatientID); err != nil {
			return err
		}
		n, err := s.plans.CloseActiveForPatient(ctx, in.PatientID, now)
		if err != nil {
			return fmt.Errorf("close active plans: %w", err)
		}
		closed = n
		return s.plans.Create(ctx, plan)
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrActivePlanConflict) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("patient_id", in.PatientID.String()).Msg("failed to create work plan")
		return nil, fmt.Errorf("create plan: %w", err)
	}
	s.idem.remember(ctx, scope, in.IdempotencyKey, plan.ID)

	s.logger.Info().
		Str("plan_id", plan.ID.String()).
		Str("patient_id", plan.PatientID.String()).
		Int64("closed_previous", closed).
		Int("objectives", len(plan.Objectives)).
		Msg("work plan created")

	return &ports.PlanResult{Plan: plan}, nil
}

func (s *PlanService) Get(ctx context.Context, caller domain.Identity, planID uuid.UUID) (*domain.WorkPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !caller.CanRead(plan.PatientID) {
		return nil, domain.ErrForbidden
	}
	return plan, nil
}

func (s *PlanService) Latest(ctx context.Context, caller domain.Identity, patientID uuid.UUID) (*domain.WorkPlan, error) {
	if !caller.CanRead(patientID) {
		return nil, domain.ErrForbidden
	}
	return s.plans.LatestForPatient(ctx, patientID)
}

func (s *PlanService) History(ctx context.Context, caller domain.Identity, patientID uuid.UUID) ([]*domain.WorkPlan, error) {
	if !caller.CanRead(patientID) {
		return nil, domain.ErrForbidden
	}
	return s.plans.ListByPatient(ctx, patientID)
}

// Close marks a plan closed. Unknown ids fail with ErrPlanNotFound.
func (s *PlanService) Close(ctx context.Context, caller domain.Identity, planID uuid.UUID) (*domain.WorkPlan, error) {
	if !caller.IsProfessional() {
		return nil, domain.ErrForbidden
	}
	plan, err := s.plans.Close(ctx, planID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("plan_id", planID.String()).Msg("work plan closed")
	return plan, nil
}

// UpdateObjective records follow-up notes and completion on an objective.
// The patient owning the plan and any professional may update it.
func (s *PlanService) UpdateObjective(ctx context.Context, caller domain.Identity, objectiveID uuid.UUID, in ports.UpdateObjectiveInput) (*domain.Objective, error) {
	if in.FollowUpNotes == nil && in.Completion == nil {
		return nil, domain.InvalidInput("nothing to update")
	}
	if in.Completion != nil {
		if err := domain.ValidateCompletion(*in.Completion); err != nil {
			return nil, err
		}
	}

	var updated *domain.Objective
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.plans.FindObjective(ctx, objectiveID)
		if err != nil {
			return err
		}
		plan, err := s.plans.FindByID(ctx, o.PlanID)
		if err != nil {
			return err
		}
		if !caller.CanRead(plan.PatientID) {
			return domain.ErrForbidden
		}
		if in.FollowUpNotes != nil {
			notes := *in.FollowUpNotes
			o.FollowUpNotes = &notes
		}
		if in.Completion != nil {
			o.Completion = *in.Completion
		}
		o.UpdatedAt = time.Now().UTC()
		if err := s.plans.UpdateObjective(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
