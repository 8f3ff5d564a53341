package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/handler"
	"github.com/iliyamo/spa-booking-bot/internal/middleware"
)

// RegisterPreBook registers the public pre-booking form endpoint and the
// admin queue of open requests.  The form carries no token, so only the
// limiter guards it.
func RegisterPreBook(e *echo.Echo, h *handler.PreBookHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.POST("/prebook", h.Submit, limiter)

	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
		limiter,
	)
	g.GET("/prebooks", h.Open)
	g.POST("/prebooks/:id/close", h.Close)
}
