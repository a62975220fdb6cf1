package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

// ProfileHandler serves profiles, /me and the professional patient views.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// profileRequest is a partial update: omitted and null fields are left unchanged.
type profileRequest struct {
	FirstName        *string `json:"first_name" validate:"omitempty,max=100"`
	LastName         *string `json:"last_name" validate:"omitempty,max=100"`
	Age              *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender           *string `json:"gender" validate:"omitempty,max=50"`
	Phone            *string `json:"phone" validate:"omitempty,max=50"`
	Address          *string `json:"address" validate:"omitempty,max=300"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,max=32"`
	NationalHealthID *string `json:"national_health_id" validate:"omitempty,max=64"`
	Allergies        *string `json:"allergies"`
	Specialty        *string `json:"specialty" validate:"omitempty,max=100"`
	LicenseNumber    *string `json:"license_number" validate:"omitempty,max=64"`
	Facility         *string `json:"facility" validate:"omitempty,max=200"`
}

func (r profileRequest) fields() domain.ProfileFields {
	return domain.ProfileFields{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Age:              r.Age,
		Gender:           r.Gender,
		Phone:            r.Phone,
		Address:          r.Address,
		DateOfBirth:      r.DateOfBirth,
		NationalHealthID: r.NationalHealthID,
		Allergies:        r.Allergies,
		Specialty:        r.Specialty,
		LicenseNumber:    r.LicenseNumber,
		Facility:         r.Facility,
	}
}

type meResponse struct {
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

type patientDetailResponse struct {
	User                    *domain.User    `json:"user"`
	Profile                 *domain.Profile `json:"profile"`
	LatestSelfScore         *float64        `json:"latest_self_score"`
	LatestProfessionalScore *float64        `json:"latest_professional_score"`
	ActivePlanID            *string         `json:"active_plan_id"`
}

func newPatientDetailResponse(d *ports.PatientDetail) patientDetailResponse {
	resp := patientDetailResponse{
		User:                    d.User,
		Profile:                 d.Profile,
		LatestSelfScore:         d.LatestSelfScore,
		LatestProfessionalScore: d.LatestProfessionalScore,
	}
	if d.ActivePlanID != nil {
		s := d.ActivePlanID.String()
		resp.ActivePlanID = &s
	}
	return resp
}

// Upsert creates or partially updates the caller's profile.
//
// @Summary      Create or update own profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Fields to set"
// @Success      200   {object}  domain.Profile
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /profile [post]
func (h *ProfileHandler) Upsert(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Upsert(c.Request().Context(), caller, req.fields())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Get returns a user's profile to that user or to a professional.
//
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "User id"
// @Success      200      {object}  domain.Profile
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /profile/{user_id} [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "user_id")
	if err != nil {
		return err
	}

	p, err := h.service.Get(c.Request().Context(), caller, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Me returns the caller's account and profile.
//
// @Summary      Current user
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	me, err := h.service.Me(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{User: me.User, Profile: me.Profile})
}

// ListPatients lists every patient account by name.
//
// @Summary      List patients
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /patients [get]
func (h *ProfileHandler) ListPatients(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	users, err := h.service.ListPatients(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// ListPatientDetails lists patients with their profile, latest scores and active plan.
//
// @Summary      List patients with details
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   patientDetailResponse
// @Failure      403  {object}  map[string]string
// @Router       /patients/detail [get]
func (h *ProfileHandler) ListPatientDetails(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	details, err := h.service.ListPatientDetails(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	resp := make([]patientDetailResponse, 0, len(details))
	for _, d := range details {
		resp = append(resp, newPatientDetailResponse(d))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetPatientDetail returns one patient with profile, latest scores and active plan.
//
// @Summary      Patient detail
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient id"
// @Success      200  {object}  patientDetailResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /patients/detail/{id} [get]
func (h *ProfileHandler) GetPatientDetail(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	d, err := h.service.GetPatientDetail(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPatientDetailResponse(d))
}
