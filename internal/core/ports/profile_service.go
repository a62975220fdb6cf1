package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

// Me is the caller's account with its profile, which may not exist yet.
type Me struct {
	User    *domain.User
	Profile *domain.Profile
}

// PatientDetail is the enriched view of a patient for professionals.
type PatientDetail struct {
	User                    *domain.User
	Profile                 *domain.Profile
	LatestSelfScore         *float64
	LatestProfessionalScore *float64
	ActivePlanID            *uuid.UUID
}

type ProfileService interface {
	Upsert(ctx context.Context, caller domain.Identity, fields domain.ProfileFields) (*domain.Profile, error)
	Get(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Profile, error)
	Me(ctx context.Context, caller domain.Identity) (*Me, error)
	ListPatients(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	ListPatientDetails(ctx context.Context, caller domain.Identity) ([]*PatientDetail, error)
	GetPatientDetail(ctx context.Context, caller domain.Identity, patientID uuid.UUID) (*PatientDetail, error)
}
