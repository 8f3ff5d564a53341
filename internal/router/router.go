package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/spa-booking-bot/internal/handler"
	"github.com/iliyamo/spa-booking-bot/internal/middleware"
)

// RegisterRoutes registers the routes that carry no staff token: probes,
// metrics, the chat platform callback and the booking confirmation link.
// The webhook authenticates by signature, the link by its signed token.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, wh *handler.WebhookHandler, ch *handler.ConfirmHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/webhook", wh.Handle)
	e.GET("/confirm", ch.Confirm)
}

// RegisterAuth registers staff login and LINE binding under /v1/auth and
// the token-protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	// bind-line checks the password itself so staff can bind before ever
	// logging in from a browser
	g.POST("/bind-line", a.BindLine)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff))
	auth.GET("/me", a.Me)
}
