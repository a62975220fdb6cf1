package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type livenessResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// Liveness godoc
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  livenessResponse
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{OK: true, Status: "ok"})
}

// Check pings one dependency.
type Check func(ctx context.Context) error

// ReadinessHandler handles GET /health/ready, the readiness probe.
// Every registered dependency must answer before the service is ready.
type ReadinessHandler struct {
	checks  map[string]Check
	timeout time.Duration
	logger  zerolog.Logger
}

func NewReadinessHandler(checks map[string]Check, logger zerolog.Logger) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, timeout: 3 * time.Second, logger: logger}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness godoc
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]dependencyStatus, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
