package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/handler"
	"github.com/iliyamo/spa-booking-bot/internal/middleware"
)

// StaffHandlers groups the handlers reachable by any staff member.
type StaffHandlers struct {
	Bookings *handler.BookingHandler
	Tickets  *handler.TicketHandler
	Board    *handler.BoardHandler
	Members  *handler.MemberHandler
	Reports  *handler.ReportHandler
}

// RegisterStaff registers store-scoped endpoints under /v1.  Every route
// needs a valid token; the store comes from its claims.  limiter runs after
// JWTAuth so buckets can key on the staff id; cache wraps the report GETs
// and evict clears it after booking or redemption writes.
func RegisterStaff(e *echo.Echo, h StaffHandlers, jwtSecret string, limiter, cache, evict echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff),
		limiter,
	)

	// ---- Bookings ----
	g.POST("/bookings", h.Bookings.Create, evict)
	g.PUT("/bookings/:id", h.Bookings.Update, evict)
	g.DELETE("/bookings/:id", h.Bookings.Delete, evict)

	// ---- Tickets ----
	g.GET("/tickets", h.Tickets.List)
	g.POST("/tickets", h.Tickets.Issue)
	g.POST("/tickets/redeem", h.Tickets.Redeem, evict)
	g.GET("/tickets/quota", h.Tickets.Remaining)

	// ---- Board notes ----
	g.GET("/notes", h.Board.List)
	g.POST("/notes", h.Board.Add)
	g.PUT("/notes/:id", h.Board.Modify)
	g.DELETE("/notes/:id", h.Board.Delete)

	// ---- Members ----
	g.GET("/members", h.Members.List)
	g.GET("/members/latest", h.Members.Latest)
	g.POST("/members", h.Members.Add)

	// ---- Reports ----
	g.GET("/reports/bookings", h.Reports.Listing, cache)
	g.GET("/reports/export.xlsx", h.Reports.Export)
}
