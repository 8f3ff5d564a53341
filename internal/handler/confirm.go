package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/utils"
)

// BookingConfirmer marks a booking as acknowledged.
type BookingConfirmer interface {
	Confirm(ctx context.Context, id int64) error
}

// ConfirmHandler serves the link embedded in staff notices.  The link
// carries a signed booking id instead of a session.
type ConfirmHandler struct {
	Bookings BookingConfirmer
	Secret   string
}

func NewConfirmHandler(b BookingConfirmer, secret string) *ConfirmHandler {
	if b == nil || secret == "" {
		panic("nil dependency passed to NewConfirmHandler")
	}
	return &ConfirmHandler{Bookings: b, Secret: secret}
}

// Confirm handles GET /confirm?token=...
func (h *ConfirmHandler) Confirm(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("token"))
	if raw == "" {
		return c.String(http.StatusBadRequest, "缺少確認碼")
	}
	id, err := utils.ParseConfirmToken(h.Secret, raw)
	if err != nil {
		return c.String(http.StatusBadRequest, "確認連結無效或已過期")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Bookings.Confirm(ctx, id); err != nil {
		if errIsNotFound(err) {
			return c.String(http.StatusNotFound, "找不到此預約")
		}
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, "確認失敗，請稍後再試")
	}
	return c.String(http.StatusOK, "預約已確認，謝謝！")
}
