package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware gates a route on a claims flag; wrong portal gets a uniform 403.
func roleMiddleware(allowed func(Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(c Claims) bool { return c.IsAdmin })
}

func teacherMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(c Claims) bool { return c.IsTeacher || c.IsAdmin })
}

func studentMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(c Claims) bool { return c.IsStudent })
}
