package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/api/middleware"
	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

// newContext builds an echo context for a JSON request. A zero identity
// leaves the request unauthenticated.
func newContext(method, target, body string, id domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id.UserID != uuid.Nil {
		middleware.SetIdentity(c, id)
	}
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

func patient() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Role: domain.RolePatient}
}

func professional() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Role: domain.RoleProfessional}
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) LatestConsent() domain.ConsentDocument {
	return domain.CurrentConsent
}

type stubProfileService struct {
	ports.ProfileService
	upsertFn        func(ctx context.Context, caller domain.Identity, f domain.ProfileFields) (*domain.Profile, error)
	getFn           func(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Profile, error)
	meFn            func(ctx context.Context, caller domain.Identity) (*ports.Me, error)
	patientDetailFn func(ctx context.Context, caller domain.Identity, id uuid.UUID) (*ports.PatientDetail, error)
}

func (s *stubProfileService) Upsert(ctx context.Context, caller domain.Identity, f domain.ProfileFields) (*domain.Profile, error) {
	return s.upsertFn(ctx, caller, f)
}

func (s *stubProfileService) Get(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Profile, error) {
	return s.getFn(ctx, caller, userID)
}

func (s *stubProfileService) Me(ctx context.Context, caller domain.Identity) (*ports.Me, error) {
	return s.meFn(ctx, caller)
}

func (s *stubProfileService) GetPatientDetail(ctx context.Context, caller domain.Identity, id uuid.UUID) (*ports.PatientDetail, error) {
	return s.patientDetailFn(ctx, caller, id)
}

type stubEvaluationService struct {
	ports.EvaluationService
	createFn     func(ctx context.Context, caller domain.Identity, in ports.CreateEvaluationInput) (*ports.EvaluationResult, error)
	compareFn    func(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Comparison, error)
	competencyFn func(ctx context.Context, caller domain.Identity, in ports.CreateCompetencyInput) (*domain.CompetencyAssessment, error)
}

func (s *stubEvaluationService) Create(ctx context.Context, caller domain.Identity, in ports.CreateEvaluationInput) (*ports.EvaluationResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubEvaluationService) Compare(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.Comparison, error) {
	return s.compareFn(ctx, caller, userID)
}

func (s *stubEvaluationService) CreateCompetency(ctx context.Context, caller domain.Identity, in ports.CreateCompetencyInput) (*domain.CompetencyAssessment, error) {
	return s.competencyFn(ctx, caller, in)
}

type stubPlanService struct {
	ports.PlanService
	createFn    func(ctx context.Context, caller domain.Identity, in ports.CreatePlanInput) (*ports.PlanResult, error)
	closeFn     func(ctx context.Context, caller domain.Identity, planID uuid.UUID) (*domain.WorkPlan, error)
	objectiveFn func(ctx context.Context, caller domain.Identity, id uuid.UUID, in ports.UpdateObjectiveInput) (*domain.Objective, error)
}

func (s *stubPlanService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePlanInput) (*ports.PlanResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubPlanService) Close(ctx context.Context, caller domain.Identity, planID uuid.UUID) (*domain.WorkPlan, error) {
	return s.closeFn(ctx, caller, planID)
}

func (s *stubPlanService) UpdateObjective(ctx context.Context, caller domain.Identity, id uuid.UUID, in ports.UpdateObjectiveInput) (*domain.Objective, error) {
	return s.objectiveFn(ctx, caller, id, in)
}
