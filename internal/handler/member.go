package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// MemberHandler serves the store's member registry.
type MemberHandler struct {
	Members *service.Members
}

func NewMemberHandler(m *service.Members) *MemberHandler {
	if m == nil {
		panic("nil members passed to NewMemberHandler")
	}
	return &MemberHandler{Members: m}
}

type memberReq struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

// Add registers a member unless the id already exists; 200 reports
// an existing id, 201 a new one.
func (h *MemberHandler) Add(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	added, err := h.Members.Add(ctx, scope, req.MemberID, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"member_id": req.MemberID, "added": added})
}

func (h *MemberHandler) Latest(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	id, err := h.Members.Latest(ctx, scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": id})
}

func (h *MemberHandler) List(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Members.List(ctx, scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"members": out})
}
