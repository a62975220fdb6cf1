package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the stub repositories. The stub transactor
// snapshots it before running fn and restores the snapshot on error, which
// mirrors a database rollback.
// ---------------------------------------------------------------------------

type memStore struct {
	users       map[uuid.UUID]*domain.User
	consents    []*domain.Consent
	profiles    map[uuid.UUID]*domain.Profile
	evaluations []*domain.Evaluation
	competency  []*domain.CompetencyAssessment
	plans       []*domain.WorkPlan

	consentErr error // if set, consent Create fails
	planErr    error // if set, plan Create fails
	commits    int
	rollbacks  int
	clock      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*domain.User),
		profiles: make(map[uuid.UUID]*domain.Profile),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so "latest" is deterministic.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func clonePlan(p *domain.WorkPlan) *domain.WorkPlan {
	c := *p
	c.Objectives = append([]domain.Objective(nil), p.Objectives...)
	return &c
}

type memSnapshot struct {
	users       map[uuid.UUID]*domain.User
	consents    []*domain.Consent
	profiles    map[uuid.UUID]*domain.Profile
	evaluations []*domain.Evaluation
	competency  []*domain.CompetencyAssessment
	plans       []*domain.WorkPlan
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		users:       make(map[uuid.UUID]*domain.User, len(m.users)),
		consents:    append([]*domain.Consent(nil), m.consents...),
		profiles:    make(map[uuid.UUID]*domain.Profile, len(m.profiles)),
		evaluations: append([]*domain.Evaluation(nil), m.evaluations...),
		competency:  append([]*domain.CompetencyAssessment(nil), m.competency...),
	}
	for k, v := range m.users {
		u := *v
		s.users[k] = &u
	}
	for k, v := range m.profiles {
		p := *v
		s.profiles[k] = &p
	}
	for _, p := range m.plans {
		s.plans = append(s.plans, clonePlan(p))
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.users = s.users
	m.consents = s.consents
	m.profiles = s.profiles
	m.evaluations = s.evaluations
	m.competency = s.competency
	m.plans = s.plans
}

type stubTx struct{ store *memStore }

func (t stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		t.store.rollbacks++
		return err
	}
	t.store.commits++
	return nil
}

// ---------------------------------------------------------------------------
// Users and consents
// ---------------------------------------------------------------------------

type stubUserRepo struct{ store *memStore }

func (r stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.store.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	u.ID = uuid.New()
	clone := *u
	r.store.users[u.ID] = &clone
	return nil
}

func (r stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r stubUserRepo) ListByRole(_ context.Context, role string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.store.users {
		if u.Role == role {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r stubUserRepo) LockPatient(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil || u.Role != domain.RolePatient {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type stubConsentRepo struct{ store *memStore }

func (r stubConsentRepo) Create(_ context.Context, c *domain.Consent) error {
	if r.store.consentErr != nil {
		return r.store.consentErr
	}
	c.ID = uuid.New()
	clone := *c
	r.store.consents = append(r.store.consents, &clone)
	return nil
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

type stubProfileRepo struct{ store *memStore }

func (r stubProfileRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	p, ok := r.store.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r stubProfileRepo) Upsert(_ context.Context, userID uuid.UUID, fields domain.ProfileFields) (*domain.Profile, error) {
	p, ok := r.store.profiles[userID]
	if !ok {
		p = &domain.Profile{ID: uuid.New(), UserID: userID, CreatedAt: r.store.tick()}
		r.store.profiles[userID] = p
	}
	applyProfileFields(p, fields)
	p.UpdatedAt = r.store.tick()
	clone := *p
	return &clone, nil
}

// applyProfileFields mirrors the COALESCE upsert: nil fields keep the stored value.
func applyProfileFields(p *domain.Profile, f domain.ProfileFields) {
	set := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	set(&p.FirstName, f.FirstName)
	set(&p.LastName, f.LastName)
	if f.Age != nil {
		v := *f.Age
		p.Age = &v
	}
	set(&p.Gender, f.Gender)
	set(&p.Phone, f.Phone)
	set(&p.Address, f.Address)
	set(&p.DateOfBirth, f.DateOfBirth)
	set(&p.NationalHealthID, f.NationalHealthID)
	set(&p.Allergies, f.Allergies)
	set(&p.Specialty, f.Specialty)
	set(&p.LicenseNumber, f.LicenseNumber)
	set(&p.Facility, f.Facility)
}

// ---------------------------------------------------------------------------
// Evaluations and competency assessments
// ---------------------------------------------------------------------------

type stubEvaluationRepo struct{ store *memStore }

func (r stubEvaluationRepo) Create(_ context.Context, e *domain.Evaluation) error {
	e.ID = uuid.New()
	e.AppliedAt = r.store.tick()
	clone := *e
	r.store.evaluations = append(r.store.evaluations, &clone)
	return nil
}

func (r stubEvaluationRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	for _, e := range r.store.evaluations {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, domain.ErrEvaluationNotFound
}

func (r stubEvaluationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Evaluation, error) {
	var out []*domain.Evaluation
	for i := len(r.store.evaluations) - 1; i >= 0; i-- {
		if e := r.store.evaluations[i]; e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r stubEvaluationRepo) Latest(ctx context.Context, userID uuid.UUID, professional bool) (*domain.Evaluation, error) {
	all, _ := r.ListByUser(ctx, userID)
	for _, e := range all {
		if e.IsSelfAssessment() != professional {
			return e, nil
		}
	}
	return nil, domain.ErrEvaluationNotFound
}

type stubCompetencyRepo struct{ store *memStore }

func (r stubCompetencyRepo) Create(_ context.Context, c *domain.CompetencyAssessment) error {
	c.ID = uuid.New()
	clone := *c
	r.store.competency = append(r.store.competency, &clone)
	return nil
}

func (r stubCompetencyRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.CompetencyAssessment, error) {
	var out []*domain.CompetencyAssessment
	for _, c := range r.store.competency {
		if c.UserID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Work plans
// ---------------------------------------------------------------------------

type stubPlanRepo struct{ store *memStore }

func (r stubPlanRepo) Create(_ context.Context, p *domain.WorkPlan) error {
	if r.store.planErr != nil {
		return r.store.planErr
	}
	p.ID = uuid.New()
	p.CreatedAt = r.store.tick()
	for i := range p.Objectives {
		p.Objectives[i].ID = uuid.New()
		p.Objectives[i].PlanID = p.ID
	}
	r.store.plans = append(r.store.plans, clonePlan(p))
	return nil
}

// closePlan mirrors the repository SQL: closed_at is set only once.
func closePlan(p *domain.WorkPlan, at time.Time) {
	if p.ClosedAt == nil {
		p.ClosedAt = &at
	}
	p.State = domain.PlanClosed
}

func (r stubPlanRepo) CloseActiveForPatient(_ context.Context, patientID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	for _, p := range r.store.plans {
		if p.PatientID == patientID && p.IsActive() {
			closePlan(p, at)
			n++
		}
	}
	return n, nil
}

func (r stubPlanRepo) Close(_ context.Context, planID uuid.UUID, at time.Time) (*domain.WorkPlan, error) {
	for _, p := range r.store.plans {
		if p.ID == planID {
			closePlan(p, at)
			return clonePlan(p), nil
		}
	}
	return nil, domain.ErrPlanNotFound
}

func (r stubPlanRepo) FindByID(_ context.Context, planID uuid.UUID) (*domain.WorkPlan, error) {
	for _, p := range r.store.plans {
		if p.ID == planID {
			return clonePlan(p), nil
		}
	}
	return nil, domain.ErrPlanNotFound
}

func (r stubPlanRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*domain.WorkPlan, error) {
	var out []*domain.WorkPlan
	for i := len(r.store.plans) - 1; i >= 0; i-- {
		if p := r.store.plans[i]; p.PatientID == patientID {
			out = append(out, clonePlan(p))
		}
	}
	return out, nil
}

func (r stubPlanRepo) LatestForPatient(ctx context.Context, patientID uuid.UUID) (*domain.WorkPlan, error) {
	all, _ := r.ListByPatient(ctx, patientID)
	if len(all) == 0 {
		return nil, domain.ErrPlanNotFound
	}
	return all[0], nil
}

func (r stubPlanRepo) FindObjective(_ context.Context, id uuid.UUID) (*domain.Objective, error) {
	for _, p := range r.store.plans {
		for _, o := range p.Objectives {
			if o.ID == id {
				clone := o
				return &clone, nil
			}
		}
	}
	return nil, domain.ErrObjectiveNotFound
}

func (r stubPlanRepo) UpdateObjective(_ context.Context, o *domain.Objective) error {
	for _, p := range r.store.plans {
		for i := range p.Objectives {
			if p.Objectives[i].ID == o.ID {
				p.Objectives[i] = *o
				return nil
			}
		}
	}
	return domain.ErrObjectiveNotFound
}

// ---------------------------------------------------------------------------
// Security and idempotency fakes
// ---------------------------------------------------------------------------

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return encoded == "hashed:"+password, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID uuid.UUID, role string) (string, error) {
	return "token-" + role + "-" + userID.String(), nil
}

type memIdempotency struct {
	keys map[string]uuid.UUID
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]uuid.UUID)}
}

func (m *memIdempotency) Lookup(_ context.Context, scope, key string) (uuid.UUID, bool, error) {
	id, ok := m.keys[scope+"|"+key]
	return id, ok, nil
}

func (m *memIdempotency) Remember(_ context.Context, scope, key string, id uuid.UUID, _ time.Duration) error {
	m.keys[scope+"|"+key] = id
	return nil
}

// seedUser inserts an account directly and returns its identity.
func seedUser(store *memStore, name, role string) domain.Identity {
	u := &domain.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "hashed:secret",
		FullName:     name,
		Role:         role,
		CreatedAt:    store.tick(),
	}
	store.users[u.ID] = u
	return domain.Identity{UserID: u.ID, Role: role}
}

var nopLogger = zerolog.Nop()
