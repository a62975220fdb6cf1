package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type ObjectiveInput struct {
	Description   string
	Activity      string
	Resources     string
	Schedule      string
	FollowUpDate  string
	Importance    int
	Feasibility   int
	Clarity       int
	Capability    int
	Value         int
	FollowUpNotes *string
	Completion    int
}

type CreatePlanInput struct {
	PatientID          uuid.UUID
	MainObjective      string
	ExecutionPlan      string
	RequiredResources  string
	AssociatedEmotions string
	Objectives         []ObjectiveInput
	IdempotencyKey     string
}

type UpdateObjectiveInput struct {
	FollowUpNotes *string
	Completion    *int
}

type PlanResult struct {
	Plan           *domain.WorkPlan
	AlreadyExisted bool
}

type PlanService interface {
	Create(ctx context.Context, caller domain.Identity, in CreatePlanInput) (*PlanResult, error)
	Get(ctx context.Context, caller domain.Identity, planID uuid.UUID) (*domain.WorkPlan, error)
	Latest(ctx context.Context, caller domain.Identity, patientID uuid.UUID) (*domain.WorkPlan, error)
	History(ctx context.Context, caller domain.Identity, patientID uuid.UUID) ([]*domain.WorkPlan, error)
	Close(ctx context.Context, caller domain.Identity, planID uuid.UUID) (*domain.WorkPlan, error)
	UpdateObjective(ctx context.Context, caller domain.Identity, objectiveID uuid.UUID, in UpdateObjectiveInput) (*domain.Objective, error)
}
