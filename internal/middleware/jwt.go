package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxScope  = "scope"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Roles carried in the context under "role".
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// JWTAuth returns an Echo middleware that validates a Bearer staff access
// token and injects the request-scoped store identity into the context.
// Handlers read it back with ScopeFrom; the rate limiter and the response
// cache key on "user_id" and the scope's store.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// signature, algorithm and expiry are checked by the parser
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			scope, err := claims.Scope()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			role := RoleStaff
			if scope.Admin {
				role = RoleAdmin
			}
			c.Set(ctxScope, scope)
			c.Set(ctxUserID, strconv.FormatInt(scope.StaffID, 10))
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
