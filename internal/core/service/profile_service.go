package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

type ProfileService struct {
	users       ports.UserRepository
	profiles    ports.ProfileRepository
	evaluations ports.EvaluationRepository
	plans       ports.PlanRepository
	logger      zerolog.Logger
}

func NewProfileService(
	users ports.UserRepository,
	profiles ports.ProfileRepository,
	evaluations ports.EvaluationRepository,
	plans ports.PlanRepository,
	logger zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		users:       users,
		profiles:    profiles,
		evaluations: evaluations,
		plans:       plans,
		logger:      logger,
	}
}

// Upsert creates or partially updates the caller's own profile.
func (s *ProfileService) Upsert(ctx context.Context, caller domain.Identity, fields domain.ProfileFields) (*domain.Profile, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	// Nothing supplied: an existing profile is returned unchanged.
	if fields.Empty() {
		existing, err := s.profiles.FindByUserID(ctx, caller.UserID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return nil, fmt.Errorf("find profile: %w", err)
		}
	}
	profile, err := s.profiles.Upsert(ctx, caller.UserID, fields)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Profile, error) {
	if !caller.CanRead(userID) {
		return nil, domain.ErrForbidden
	}
	return s.profiles.FindByUserID(ctx, userID)
}

func (s *ProfileService) Me(ctx context.Context, caller domain.Identity) (*ports.Me, error) {
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		// A valid token for a deleted account.
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	profile, err := s.optionalProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.Me{User: user, Profile: profile}, nil
}

func (s *ProfileService) ListPatients(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	if !caller.IsProfessional() {
		return nil, domain.ErrForbidden
	}
	return s.users.ListByRole(ctx, domain.RolePatient)
}

func (s *ProfileService) ListPatientDetails(ctx context.Context, caller domain.Identity) ([]*ports.PatientDetail, error) {
	patients, err := s.ListPatients(ctx, caller)
	if err != nil {
		return nil, err
	}
	details := make([]*ports.PatientDetail, 0, len(patients))
	for _, p := range patients {
		d, err := s.detail(ctx, p)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *ProfileService) GetPatientDetail(ctx context.Context, caller domain.Identity, patientID uuid.UUID) (*ports.PatientDetail, error) {
	if !caller.IsProfessional() {
		return nil, domain.ErrForbidden
	}
	user, err := s.users.FindByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RolePatient {
		return nil, domain.ErrUserNotFound
	}
	return s.detail(ctx, user)
}

func (s *ProfileService) detail(ctx context.Context, user *domain.User) (*ports.PatientDetail, error) {
	d := &ports.PatientDetail{User: user}

	profile, err := s.optionalProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	d.Profile = profile

	if d.LatestSelfScore, err = s.latestScore(ctx, user.ID, false); err != nil {
		return nil, err
	}
	if d.LatestProfessionalScore, err = s.latestScore(ctx, user.ID, true); err != nil {
		return nil, err
	}

	plan, err := s.plans.LatestForPatient(ctx, user.ID)
	switch {
	case err == nil:
		if plan.IsActive() {
			d.ActivePlanID = &plan.ID
		}
	case !errors.Is(err, domain.ErrPlanNotFound):
		return nil, fmt.Errorf("latest plan: %w", err)
	}
	return d, nil
}

func (s *ProfileService) optionalProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) latestScore(ctx context.Context, userID uuid.UUID, professional bool) (*float64, error) {
	e, err := s.evaluations.Latest(ctx, userID, professional)
	if errors.Is(err, domain.ErrEvaluationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest evaluation: %w", err)
	}
	score := e.Score
	return &score, nil
}
