package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/handler"
	"github.com/iliyamo/spa-booking-bot/internal/middleware"
)

// RegisterAdmin registers the admin-only report endpoints under
// /v1/admin.  The unconfirmed digest spans every store.
func RegisterAdmin(e *echo.Echo, r *handler.ReportHandler, jwtSecret string, limiter, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
		limiter,
	)

	g.GET("/reports/summary", r.Summary, cache)
	g.GET("/reports/unconfirmed", r.Unconfirmed)
	g.POST("/reports/unconfirmed/broadcast", r.Broadcast)
}
