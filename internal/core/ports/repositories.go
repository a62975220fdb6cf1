package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

// Transactor runs fn inside a single database transaction. Repositories
// called with the context passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByRole(ctx context.Context, role string) ([]*domain.User, error)
	// LockPatient loads a patient row with a row lock held until the
	// surrounding transaction ends. Non-patients yield ErrUserNotFound.
	LockPatient(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ConsentRepository appends consent records. There is no update path.
type ConsentRepository interface {
	Create(ctx context.Context, consent *domain.Consent) error
}

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	// Upsert creates the profile when missing, otherwise overwrites only the
	// supplied fields, and returns the stored row.
	Upsert(ctx context.Context, userID uuid.UUID, fields domain.ProfileFields) (*domain.Profile, error)
}

type EvaluationRepository interface {
	Create(ctx context.Context, e *domain.Evaluation) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Evaluation, error)
	// Latest returns the newest self-assessment (professional=false) or the
	// newest professional assessment (professional=true) of userID.
	Latest(ctx context.Context, userID uuid.UUID, professional bool) (*domain.Evaluation, error)
}

type CompetencyRepository interface {
	Create(ctx context.Context, c *domain.CompetencyAssessment) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CompetencyAssessment, error)
}

type PlanRepository interface {
	// Create inserts the plan and its objectives in position order.
	Create(ctx context.Context, plan *domain.WorkPlan) error
	CloseActiveForPatient(ctx context.Context, patientID uuid.UUID, at time.Time) (int64, error)
	Close(ctx context.Context, planID uuid.UUID, at time.Time) (*domain.WorkPlan, error)
	FindByID(ctx context.Context, planID uuid.UUID) (*domain.WorkPlan, error)
	LatestForPatient(ctx context.Context, patientID uuid.UUID) (*domain.WorkPlan, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.WorkPlan, error)
	FindObjective(ctx context.Context, objectiveID uuid.UUID) (*domain.Objective, error)
	UpdateObjective(ctx context.Context, o *domain.Objective) error
}
