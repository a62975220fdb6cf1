package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/api/metrics"
	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

type EvaluationHandler struct {
	service ports.EvaluationService
}

func NewEvaluationHandler(service ports.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: service}
}

type evaluationRequest struct {
	UserID   string        `json:"user_id" validate:"required,uuid"`
	TestType string        `json:"test_type" validate:"required,max=100"`
	Score    *float64      `json:"score" validate:"required"`
	Answers  domain.Answer `json:"answers" swaggertype:"object"`
	Notes    *string       `json:"notes"`
}

type competencyRequest struct {
	Answers    domain.Answer `json:"answers" swaggertype:"object"`
	F1Average  *float64      `json:"f1_average" validate:"required"`
	F2Average  *float64      `json:"f2_average" validate:"required"`
	F3Average  *float64      `json:"f3_average" validate:"required"`
	F4Average  *float64      `json:"f4_average" validate:"required"`
	TotalScore *float64      `json:"total_score" validate:"required"`
}

// Create stores an evaluation. Patients may only rate themselves; a
// professional is recorded as the evaluator.
//
// @Summary      Submit an evaluation
// @Tags         evaluations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Key that makes retries safe"
// @Param        body             body      evaluationRequest  true   "Evaluation"
// @Success      201              {object}  domain.Evaluation
// @Success      200              {object}  domain.Evaluation  "Replayed by idempotency key"
// @Failure      400              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Router       /evaluations [post]
func (h *EvaluationHandler) Create(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req evaluationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return domain.InvalidInput("user_id must be a valid uuid")
	}

	res, err := h.service.Create(c.Request().Context(), caller, ports.CreateEvaluationInput{
		UserID:         userID,
		TestType:       req.TestType,
		Score:          *req.Score,
		Answers:        req.Answers,
		Notes:          req.Notes,
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return err
	}

	if res.AlreadyExisted {
		metrics.IdempotentReplaysTotal.WithLabelValues("evaluation").Inc()
	} else if res.Evaluation.IsSelfAssessment() {
		metrics.EvaluationsTotal.WithLabelValues("self").Inc()
	} else {
		metrics.EvaluationsTotal.WithLabelValues("professional").Inc()
	}
	return c.JSON(createdOrReplayed(res.AlreadyExisted), res.Evaluation)
}

// List returns a user's evaluations, newest first.
//
// @Summary      List evaluations
// @Tags         evaluations
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "Evaluated user id"
// @Success      200      {array}   domain.Evaluation
// @Failure      403      {object}  map[string]string
// @Router       /evaluations/{user_id} [get]
func (h *EvaluationHandler) List(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return err
	}

	evals, err := h.service.List(c.Request().Context(), caller, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, evals)
}

// Compare pairs the latest self-assessment with the latest professional assessment.
//
// @Summary      Compare self and professional assessment
// @Tags         evaluations
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "Patient id"
// @Success      200      {object}  domain.Comparison
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /evaluations/compare/{user_id} [get]
func (h *EvaluationHandler) Compare(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return err
	}

	cmp, err := h.service.Compare(c.Request().Context(), caller, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cmp)
}

// CreateCompetency stores the caller's competency assessment.
//
// @Summary      Submit a competency assessment
// @Tags         evaluations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      competencyRequest  true  "Assessment"
// @Success      201   {object}  domain.CompetencyAssessment
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /evaluations/competencies [post]
func (h *EvaluationHandler) CreateCompetency(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req competencyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.CreateCompetency(c.Request().Context(), caller, ports.CreateCompetencyInput{
		Answers:    req.Answers,
		F1Average:  *req.F1Average,
		F2Average:  *req.F2Average,
		F3Average:  *req.F3Average,
		F4Average:  *req.F4Average,
		TotalScore: *req.TotalScore,
	})
	if err != nil {
		return err
	}

	metrics.CompetencyAssessmentsTotal.Inc()
	return c.JSON(http.StatusCreated, a)
}

// ListCompetencies returns a user's competency assessments, newest first.
//
// @Summary      List competency assessments
// @Tags         evaluations
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "User id"
// @Success      200      {array}   domain.CompetencyAssessment
// @Failure      403      {object}  map[string]string
// @Router       /evaluations/competencies/{user_id} [get]
func (h *EvaluationHandler) ListCompetencies(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return err
	}

	list, err := h.service.ListCompetencies(c.Request().Context(), caller, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}
