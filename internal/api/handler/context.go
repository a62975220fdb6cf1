package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/api/middleware"
	"github.com/etiaam/etiaam-api/internal/core/domain"
)

// IdempotencyKeyHeader lets clients retry a create without duplicating it.
const IdempotencyKeyHeader = "Idempotency-Key"

// callerIdentity returns the identity injected by the Auth middleware.
// Its absence means the route was mounted without Auth.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.UserID == uuid.Nil {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// uuidParam parses a path parameter, answering 400 for a malformed id.
func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// createdOrReplayed answers 201 for a new record and 200 for an idempotent replay.
func createdOrReplayed(replayed bool) int {
	if replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}
