package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanState is the lifecycle state of a work plan.
type PlanState string

const (
	PlanActive PlanState = "active"
	PlanClosed PlanState = "closed"
)

const (
	MinRating     = 1
	MaxRating     = 10
	MaxCompletion = 100
)

// WorkPlan ties a patient to a professional with a main objective and an
// ordered list of objectives. A patient has at most one active plan.
type WorkPlan struct {
	ID                 uuid.UUID   `json:"id"`
	PatientID          uuid.UUID   `json:"patient_id"`
	ProfessionalID     uuid.UUID   `json:"professional_id"`
	MainObjective      string      `json:"main_objective"`
	ExecutionPlan      string      `json:"execution_plan"`
	RequiredResources  string      `json:"required_resources"`
	AssociatedEmotions string      `json:"associated_emotions"`
	State              PlanState   `json:"state"`
	CreatedAt          time.Time   `json:"created_at"`
	ClosedAt           *time.Time  `json:"closed_at"`
	Objectives         []Objective `json:"objectives"`
}

func (p *WorkPlan) IsActive() bool { return p.State == PlanActive }

// Validate checks the plan header and every objective.
func (p *WorkPlan) Validate() error {
	if strings.TrimSpace(p.MainObjective) == "" {
		return InvalidInput("main_objective is required")
	}
	for i := range p.Objectives {
		if err := p.Objectives[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Objective is a line item of a WorkPlan. The five ratings are ordinal
// self-ratings; Completion is a percentage.
type Objective struct {
	ID            uuid.UUID `json:"id"`
	PlanID        uuid.UUID `json:"plan_id"`
	Position      int       `json:"position"`
	Description   string    `json:"description"`
	Activity      string    `json:"activity"`
	Resources     string    `json:"resources"`
	Schedule      string    `json:"schedule"`
	FollowUpDate  string    `json:"follow_up_date"`
	Importance    int       `json:"importance"`
	Feasibility   int       `json:"feasibility"`
	Clarity       int       `json:"clarity"`
	Capability    int       `json:"capability"`
	Value         int       `json:"value"`
	FollowUpNotes *string   `json:"follow_up_notes"`
	Completion    int       `json:"completion"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (o *Objective) Validate() error {
	if strings.TrimSpace(o.Description) == "" {
		return InvalidInput("objective description is required")
	}
	ratings := map[string]int{
		"importance":  o.Importance,
		"feasibility": o.Feasibility,
		"clarity":     o.Clarity,
		"capability":  o.Capability,
		"value":       o.Value,
	}
	for name, r := range ratings {
		if r < MinRating || r > MaxRating {
			return InvalidInput("%s must be between %d and %d", name, MinRating, MaxRating)
		}
	}
	return ValidateCompletion(o.Completion)
}

func ValidateCompletion(c int) error {
	if c < 0 || c > MaxCompletion {
		return InvalidInput("completion must be between 0 and %d", MaxCompletion)
	}
	return nil
}
