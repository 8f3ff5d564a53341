package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// BoardHandler manages the per-store notes shown under booking listings.
type BoardHandler struct {
	Board *service.Board
}

func NewBoardHandler(b *service.Board) *BoardHandler {
	if b == nil {
		panic("nil board passed to NewBoardHandler")
	}
	return &BoardHandler{Board: b}
}

type noteReq struct {
	Message string `json:"message"`
}

func (h *BoardHandler) List(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	notes, err := h.Board.List(ctx, scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notes": notes})
}

func (h *BoardHandler) Add(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Board.Add(ctx, scope, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *BoardHandler) Modify(c echo.Context) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Board.Modify(ctx, scope, id, req.Message); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BoardHandler) Delete(c echo.Context) error {
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

	if err := h.Board.Delete(ctx, scope, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
