package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler renders booking listings.  Text endpoints return the same
// strings the chat flows show.
type ReportHandler struct {
	Reports     *service.Reports
	Broadcaster *service.DigestBroadcaster
	Loc         *time.Location
	now         func() time.Time
}

func NewReportHandler(r *service.Reports, b *service.DigestBroadcaster, loc *time.Location) *ReportHandler {
	if r == nil || b == nil || loc == nil {
		panic("nil dependency passed to NewReportHandler")
	}
	return &ReportHandler{Reports: r, Broadcaster: b, Loc: loc, now: time.Now}
}

// Listing: GET /v1/reports/bookings?day=&days=&serials=&members=
func (h *ReportHandler) Listing(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	day, ok := dayParam(c, h.Loc, h.now())
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	text, err := h.Reports.Listing(ctx, scope, service.ListingOptions{
		Day:         day,
		Days:        daysParam(c),
		ShowSerials: boolParam(c, "serials"),
		ShowMembers: boolParam(c, "members"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"text": text})
}

// Summary: GET /v1/reports/summary (admin)
func (h *ReportHandler) Summary(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	day, ok := dayParam(c, h.Loc, h.now())
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	text, err := h.Reports.Summary(ctx, scope, day, daysParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"text": text})
}

// Unconfirmed: GET /v1/reports/unconfirmed (admin)
func (h *ReportHandler) Unconfirmed(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	text, err := h.Reports.UnconfirmedDigest(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"text": text})
}

// Export: GET /v1/reports/export.xlsx?day=&days=
func (h *ReportHandler) Export(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	day, ok := dayParam(c, h.Loc, h.now())
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	data, err := h.Reports.ExportXLSX(ctx, scope, day, daysParam(c))
	if err != nil {
		return writeError(c, err)
	}
	name := fmt.Sprintf("bookings-%s.xlsx", day.Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}

// Broadcast pushes the unconfirmed digest into the group room (admin).
// The push gets its own deadline, so only the default request context is used.
func (h *ReportHandler) Broadcast(c echo.Context) error {
	text, err := h.Broadcaster.Broadcast(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"text": text})
}
