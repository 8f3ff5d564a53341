package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// BookingHandler exposes the booking ledger.
type BookingHandler struct {
	Ledger *service.BookingLedger
	Loc    *time.Location
}

func NewBookingHandler(l *service.BookingLedger, loc *time.Location) *BookingHandler {
	if l == nil || loc == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: l, Loc: loc}
}

// ----- DTOs -----

type bookingReq struct {
	CustomerName string `json:"customer_name"`
	Start        string `json:"start"` // "2006-01-02 15:04" in the store's zone, or RFC3339
	StaffName    string `json:"staff_name"`
	CourseID     int64  `json:"course_id"`
	Note         string `json:"note"`
	MemberID     string `json:"member_id"`
	ExtraData    string `json:"exdata"`
}

func (h *BookingHandler) input(req bookingReq) (service.BookingInput, bool) {
	start, ok := parseStart(req.Start, h.Loc)
	if !ok {
		return service.BookingInput{}, false
	}
	return service.BookingInput{
		CustomerName: req.CustomerName,
		Start:        start,
		StaffName:    req.StaffName,
		CourseID:     req.CourseID,
		Note:         req.Note,
		MemberID:     req.MemberID,
		ExtraData:    req.ExtraData,
	}, true
}

// parseStart accepts wall-clock time in loc or an RFC3339 instant, which is
// then moved into loc so the late-surcharge cutoff reads store time.
func parseStart(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

func (h *BookingHandler) Create(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, ok := h.input(req)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start time"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Ledger.Create(ctx, scope, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Update(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, ok := h.input(req)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start time"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Ledger.Update(ctx, scope, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Delete(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Ledger.Delete(ctx, scope, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
