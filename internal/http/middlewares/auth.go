package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"caseflow.io/caseflow/internal/auth"
	apperrors "caseflow.io/caseflow/internal/errors"
	"caseflow.io/caseflow/internal/workflow"
)

const actorKey = "actor"

// Authenticate resolves the bearer token into the acting user.
func Authenticate(signer *auth.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return apperrors.ErrUnauthenticated
			}

			claims, err := signer.Parse(strings.TrimSpace(raw))
			if err != nil {
				return apperrors.ErrUnauthenticated
			}

			c.Set(actorKey, claims.Actor())
			return next(c)
		}
	}
}

func ActorFrom(c echo.Context) (workflow.Actor, bool) {
	actor, ok := c.Get(actorKey).(workflow.Actor)
	return actor, ok && actor.UserID != ""
}
