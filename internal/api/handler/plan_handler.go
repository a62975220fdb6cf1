package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/api/metrics"
	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

type PlanHandler struct {
	service ports.PlanService
}

func NewPlanHandler(service ports.PlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

type objectiveRequest struct {
	Description   string  `json:"description" validate:"required"`
	Activity      string  `json:"activity"`
	Resources     string  `json:"resources"`
	Schedule      string  `json:"schedule"`
	FollowUpDate  string  `json:"follow_up_date"`
	Importance    int     `json:"importance" validate:"gte=1,lte=10"`
	Feasibility   int     `json:"feasibility" validate:"gte=1,lte=10"`
	Clarity       int     `json:"clarity" validate:"gte=1,lte=10"`
	Capability    int     `json:"capability" validate:"gte=1,lte=10"`
	Value         int     `json:"value" validate:"gte=1,lte=10"`
	FollowUpNotes *string `json:"follow_up_notes"`
	Completion    int     `json:"completion" validate:"gte=0,lte=100"`
}

type createPlanRequest struct {
	PatientID          string             `json:"patient_id" validate:"required,uuid"`
	MainObjective      string             `json:"main_objective" validate:"required"`
	ExecutionPlan      string             `json:"execution_plan"`
	RequiredResources  string             `json:"required_resources"`
	AssociatedEmotions string             `json:"associated_emotions"`
	Objectives         []objectiveRequest `json:"objectives" validate:"dive"`
}

type updateObjectiveRequest struct {
	FollowUpNotes *string `json:"follow_up_notes"`
	Completion    *int    `json:"completion" validate:"omitempty,gte=0,lte=100"`
}

// Create replaces the patient's active plan with a new one.
//
// @Summary      Create a work plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Key that makes retries safe"
// @Param        body             body      createPlanRequest  true   "Plan with objectives"
// @Success      201              {object}  domain.WorkPlan
// @Success      200              {object}  domain.WorkPlan  "Replayed by idempotency key"
// @Failure      400              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Router       /plan [post]
func (h *PlanHandler) Create(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req createPlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return domain.InvalidInput("patient_id must be a valid uuid")
	}

	in := ports.CreatePlanInput{
		PatientID:          patientID,
		MainObjective:      req.MainObjective,
		ExecutionPlan:      req.ExecutionPlan,
		RequiredResources:  req.RequiredResources,
		AssociatedEmotions: req.AssociatedEmotions,
		Objectives:         make([]ports.ObjectiveInput, 0, len(req.Objectives)),
		IdempotencyKey:     c.Request().Header.Get(IdempotencyKeyHeader),
	}
	for _, o := range req.Objectives {
		in.Objectives = append(in.Objectives, ports.ObjectiveInput{
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
		})
	}

	res, err := h.service.Create(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}

	if res.AlreadyExisted {
		metrics.IdempotentReplaysTotal.WithLabelValues("plan").Inc()
	} else {
		metrics.PlansCreatedTotal.Inc()
	}
	return c.JSON(createdOrReplayed(res.AlreadyExisted), res.Plan)
}

// Get returns one plan with its objectives.
//
// @Summary      Get a work plan
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        plan_id  path      string  true  "Plan id"
// @Success      200      {object}  domain.WorkPlan
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /plan/{plan_id} [get]
func (h *PlanHandler) Get(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	planID, err := uuidParam(c, "plan_id")
	if err != nil {
		return err
	}

	p, err := h.service.Get(c.Request().Context(), caller, planID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Latest returns the patient's most recent plan.
//
// @Summary      Latest work plan of a patient
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id  path      string  true  "Patient id"
// @Success      200         {object}  domain.WorkPlan
// @Failure      403         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Router       /plan/latest/{patient_id} [get]
func (h *PlanHandler) Latest(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	patientID, err := uuidParam(c, "patient_id")
	if err != nil {
		return err
	}

	p, err := h.service.Latest(c.Request().Context(), caller, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// History returns every plan of the patient, newest first.
//
// @Summary      Work plan history of a patient
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id  path      string  true  "Patient id"
// @Success      200         {array}   domain.WorkPlan
// @Failure      403         {object}  map[string]string
// @Router       /plan/history/{patient_id} [get]
func (h *PlanHandler) History(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	patientID, err := uuidParam(c, "patient_id")
	if err != nil {
		return err
	}

	plans, err := h.service.History(c.Request().Context(), caller, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

// Close marks a plan as closed. Closing a closed plan is a no-op.
//
// @Summary      Close a work plan
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        plan_id  path      string  true  "Plan id"
// @Success      200      {object}  domain.WorkPlan
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /plan/close/{plan_id} [put]
func (h *PlanHandler) Close(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	planID, err := uuidParam(c, "plan_id")
	if err != nil {
		return err
	}

	p, err := h.service.Close(c.Request().Context(), caller, planID)
	if err != nil {
		return err
	}

	metrics.PlansClosedTotal.Inc()
	return c.JSON(http.StatusOK, p)
}

// UpdateObjective records follow-up notes or completion for one objective.
//
// @Summary      Update objective follow-up
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        objective_id  path      string                  true  "Objective id"
// @Param        body          body      updateObjectiveRequest  true  "Follow-up"
// @Success      200           {object}  domain.Objective
// @Failure      400           {object}  map[string]string
// @Failure      403           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Router       /plan/objectives/{objective_id} [put]
func (h *PlanHandler) UpdateObjective(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	objectiveID, err := uuidParam(c, "objective_id")
	if err != nil {
		return err
	}
	var req updateObjectiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, err := h.service.UpdateObjective(c.Request().Context(), caller, objectiveID, ports.UpdateObjectiveInput{
		FollowUpNotes: req.FollowUpNotes,
		Completion:    req.Completion,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}
