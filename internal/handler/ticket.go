package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// TicketHandler exposes prepaid ticket issue and redemption.
type TicketHandler struct {
	Ledger *service.TicketLedger
}

func NewTicketHandler(l *service.TicketLedger) *TicketHandler {
	if l == nil {
		panic("nil ticket ledger passed to NewTicketHandler")
	}
	return &TicketHandler{Ledger: l}
}

// ----- DTOs -----

type issueReq struct {
	TypeID    int64    `json:"type_id"`
	StaffName string   `json:"staff_name"`
	Customer  string   `json:"customer_name"`
	Serials   []string `json:"serials"`
}

type redeemReq struct {
	TypeID    int64  `json:"type_id"`
	Serial    string `json:"serial"`
	StaffName string `json:"staff_name"`
	BookingID int64  `json:"booking_id"`
}

// Issue: POST /v1/tickets
func (h *TicketHandler) Issue(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	var req issueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Ledger.Issue(ctx, scope, service.IssueInput{
		TypeID: req.TypeID, StaffName: req.StaffName, Customer: req.Customer, Serials: req.Serials,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": out})
}

// Redeem: POST /v1/tickets/redeem
func (h *TicketHandler) Redeem(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	err = h.Ledger.Redeem(ctx, scope, service.RedeemInput{
		TypeID: req.TypeID, Serial: req.Serial, StaffName: req.StaffName, BookingID: req.BookingID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"redeemed": true})
}

// Remaining: GET /v1/tickets/quota?staff=NAME (defaults to the caller)
func (h *TicketHandler) Remaining(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	name := c.QueryParam("staff")
	if name == "" {
		name = scope.StaffName
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Ledger.Remaining(ctx, scope, name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"staff": name, "remaining": n})
}

// List: GET /v1/tickets?type=ID
func (h *TicketHandler) List(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	var typeID int64
	if raw := c.QueryParam("type"); raw != "" {
		typeID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || typeID < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
		}
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Ledger.List(ctx, scope, typeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}
