package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// PreBookHandler takes requests from the customer booking form and lets
// admins work through them.
type PreBookHandler struct {
	PreBooks *service.PreBookings
	Loc      *time.Location
}

func NewPreBookHandler(p *service.PreBookings, loc *time.Location) *PreBookHandler {
	if p == nil || loc == nil {
		panic("nil dependency passed to NewPreBookHandler")
	}
	return &PreBookHandler{PreBooks: p, Loc: loc}
}

// ----- DTOs -----

type preBookReq struct {
	LineUserID string               `json:"line_user_id"`
	LineName   string               `json:"line_name"`
	Start      string               `json:"start"`
	Course     string               `json:"course"`
	Guests     []model.PreBookGuest `json:"guests"`
}

// Submit: POST /prebook
func (h *PreBookHandler) Submit(c echo.Context) error {
	var req preBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, ok := parseStart(req.Start, h.Loc)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start time"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.PreBooks.Submit(ctx, service.PreBookInput{
		LineUserID: req.LineUserID,
		LineName:   req.LineName,
		Start:      start,
		Course:     req.Course,
		Guests:     req.Guests,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Open: GET /v1/admin/prebooks
func (h *PreBookHandler) Open(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.PreBooks.Open(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"prebooks": out})
}

// Close: POST /v1/admin/prebooks/:id/close
func (h *PreBookHandler) Close(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.PreBooks.Close(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
