package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

const identityKey = "identity"

// Auth validates the bearer token and injects the caller identity into context.
func Auth(tokens ports.TokenDecoder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			id, err := tokens.Decode(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

// SetIdentity stores id the way Auth does. Used by handler tests.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}
