package middleware

// identity.go holds the accessors shared by handlers and the other
// middleware to read the identity JWTAuth stored in the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// ScopeFrom returns the store scope of an authenticated request.
func ScopeFrom(c echo.Context) (model.StoreScope, bool) {
	s, ok := c.Get(ctxScope).(model.StoreScope)
	return s, ok
}

// WithScope stores scope in the context.  Tests use it to skip token
// issuing.
func WithScope(c echo.Context, scope model.StoreScope) {
	c.Set(ctxScope, scope)
	c.Set(ctxUserID, strconv.FormatInt(scope.StaffID, 10))
	if scope.Admin {
		c.Set(ctxRole, RoleAdmin)
	} else {
		c.Set(ctxRole, RoleStaff)
	}
}

// currentStaffID returns the authenticated staff id or "anon".
func currentStaffID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// currentStoreID returns the scope's store id or "none" for public routes.
func currentStoreID(c echo.Context) string {
	if s, ok := ScopeFrom(c); ok {
		return strconv.FormatInt(s.StoreID, 10)
	}
	return "none"
}

// currentViewer returns "admin" or "staff" for scoped requests, "anon"
// otherwise.
func currentViewer(c echo.Context) string {
	s, ok := ScopeFrom(c)
	switch {
	case !ok:
		return "anon"
	case s.Admin:
		return RoleAdmin
	default:
		return RoleStaff
	}
}
