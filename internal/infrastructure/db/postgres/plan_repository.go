package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type PlanRepository struct{ base }

func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{base{pool: pool}}
}

const planCols = `id, patient_id, professional_id, main_objective, execution_plan,
	required_resources, associated_emotions, state, created_at, closed_at`

const objectiveCols = `id, plan_id, position, description, activity, resources, schedule,
	follow_up_date, importance, feasibility, clarity, capability, value, follow_up_notes,
	completion, updated_at`

func scanPlan(row pgx.Row) (*domain.WorkPlan, error) {
	var p domain.WorkPlan
	err := row.Scan(&p.ID, &p.PatientID, &p.ProfessionalID, &p.MainObjective, &p.ExecutionPlan,
		&p.RequiredResources, &p.AssociatedEmotions, &p.State, &p.CreatedAt, &p.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	p.Objectives = []domain.Objective{}
	return &p, nil
}

func scanObjective(row pgx.Row) (*domain.Objective, error) {
	var o domain.Objective
	err := row.Scan(&o.ID, &o.PlanID, &o.Position, &o.Description, &o.Activity, &o.Resources, &o.Schedule,
		&o.FollowUpDate, &o.Importance, &o.Feasibility, &o.Clarity, &o.Capability, &o.Value, &o.FollowUpNotes,
		&o.Completion, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectiveNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts the plan and its objectives. Callers run it inside
// Transactor.WithinTx so a failed objective insert discards the plan.
func (r *PlanRepository) Create(ctx context.Context, p *domain.WorkPlan) error {
	q := r.conn(ctx)
	p.ID = uuid.New()
	_, err := q.Exec(ctx, `
		INSERT INTO work_plans (id, patient_id, professional_id, main_objective, execution_plan,
			required_resources, associated_emotions, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.PatientID, p.ProfessionalID, p.MainObjective, p.ExecutionPlan,
		p.RequiredResources, p.AssociatedEmotions, p.State, p.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return domain.ErrUserNotFound
		case isUniqueViolation(err, "uq_work_plans_one_active"):
			return domain.ErrActivePlanConflict
		}
		return fmt.Errorf("insert work plan: %w", err)
	}

	for i := range p.Objectives {
		o := &p.Objectives[i]
		o.ID = uuid.New()
		o.PlanID = p.ID
		o.Position = i
		_, err := q.Exec(ctx, `
			INSERT INTO plan_objectives (id, plan_id, position, description, activity, resources, schedule,
				follow_up_date, importance, feasibility, clarity, capability, value, follow_up_notes,
				completion, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			o.ID, o.PlanID, o.Position, o.Description, o.Activity, o.Resources, o.Schedule,
			o.FollowUpDate, o.Importance, o.Feasibility, o.Clarity, o.Capability, o.Value, o.FollowUpNotes,
			o.Completion, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert objective %d: %w", i, err)
		}
	}
	return nil
}

func (r *PlanRepository) CloseActiveForPatient(ctx context.Context, patientID uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE work_plans SET state = $2, closed_at = $3
		WHERE patient_id = $1 AND state = $4`,
		patientID, domain.PlanClosed, at, domain.PlanActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Close is idempotent: an already closed plan keeps its closed_at.
func (r *PlanRepository) Close(ctx context.Context, planID uuid.UUID, at time.Time) (*domain.WorkPlan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx, `
		UPDATE work_plans SET state = $2, closed_at = COALESCE(closed_at, $3)
		WHERE id = $1
		RETURNING `+planCols,
		planID, domain.PlanClosed, at))
	if err != nil {
		return nil, err
	}
	if err := r.loadObjectives(ctx, []*domain.WorkPlan{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlanRepository) FindByID(ctx context.Context, planID uuid.UUID) (*domain.WorkPlan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx, `SELECT `+planCols+` FROM work_plans WHERE id = $1`, planID))
	if err != nil {
		return nil, err
	}
	if err := r.loadObjectives(ctx, []*domain.WorkPlan{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlanRepository) LatestForPatient(ctx context.Context, patientID uuid.UUID) (*domain.WorkPlan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM work_plans WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`, patientID))
	if err != nil {
		return nil, err
	}
	if err := r.loadObjectives(ctx, []*domain.WorkPlan{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlanRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.WorkPlan, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+planCols+` FROM work_plans WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list work plans: %w", err)
	}
	defer rows.Close()

	plans := []*domain.WorkPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadObjectives(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// loadObjectives fills the objectives of every plan with one query.
func (r *PlanRepository) loadObjectives(ctx context.Context, plans []*domain.WorkPlan) error {
	if len(plans) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(plans))
	byID := make(map[uuid.UUID]*domain.WorkPlan, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+objectiveCols+` FROM plan_objectives WHERE plan_id = ANY($1) ORDER BY plan_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load objectives: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return err
		}
		if p, ok := byID[o.PlanID]; ok {
			p.Objectives = append(p.Objectives, *o)
		}
	}
	return rows.Err()
}

// FindObjective locks the row when called inside a transaction.
func (r *PlanRepository) FindObjective(ctx context.Context, objectiveID uuid.UUID) (*domain.Objective, error) {
	return scanObjective(r.conn(ctx).QueryRow(ctx,
		`SELECT `+objectiveCols+` FROM plan_objectives WHERE id = $1 FOR UPDATE`, objectiveID))
}

func (r *PlanRepository) UpdateObjective(ctx context.Context, o *domain.Objective) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE plan_objectives SET follow_up_notes = $2, completion = $3, updated_at = $4
		WHERE id = $1`,
		o.ID, o.FollowUpNotes, o.Completion, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update objective: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrObjectiveNotFound
	}
	return nil
}
