package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/api/metrics"
	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=6,max=128"`
	FullName       string `json:"full_name" validate:"required,max=200"`
	Role           string `json:"role" validate:"required,oneof=paciente profesional"`
	ConsentText    string `json:"consent_text" validate:"required"`
	ConsentVersion string `json:"consent_version" validate:"required,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// tokenResponse is returned by register and login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
}

func newTokenResponse(res *ports.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		UserID:      res.User.ID.String(),
		Role:        res.User.Role,
		FullName:    res.User.FullName,
		Email:       res.User.Email,
	}
}

// Register creates an account together with its consent record.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account and accepted consent"
// @Success      201   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Role:           req.Role,
		ConsentText:    req.ConsentText,
		ConsentVersion: req.ConsentVersion,
		IPAddress:      c.RealIP(),
		UserAgent:      c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(res.User.Role).Inc()
	return c.JSON(http.StatusCreated, newTokenResponse(res))
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, newTokenResponse(res))
}

// LatestConsent returns the consent text users must accept to register.
//
// @Summary      Current consent document
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.ConsentDocument
// @Router       /consent/latest [get]
func (h *AuthHandler) LatestConsent(c echo.Context) error {
	return c.JSON(http.StatusOK, h.authService.LatestConsent())
}
