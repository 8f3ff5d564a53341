package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// AuthHandler bundles dependencies for staff auth endpoints.
type AuthHandler struct {
	Auth *service.StaffAuth
}

func NewAuthHandler(a *service.StaffAuth) *AuthHandler {
	if a == nil {
		panic("nil auth service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type loginReq struct {
	StoreKey string `json:"store_key"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type bindLineReq struct {
	StoreKey   string `json:"store_key"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	LineUserID string `json:"line_user_id"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type staffPart struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	StoreID int64  `json:"store_id"`
	Admin   bool   `json:"admin"`
}

type authResp struct {
	Staff  staffPart `json:"staff"`
	Access tokenPart `json:"access"`
}

// Login: store key + name + password → access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tok, staff, err := h.Auth.Login(ctx, req.StoreKey, req.Name, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Staff:  staffPart{ID: staff.ID, Name: staff.Name, StoreID: staff.StoreID, Admin: staff.IsAdmin},
		Access: tokenPart{Token: tok.Token, Expires: tok.Exp},
	})
}

// BindLine links a LINE account to a staff member (credentials in the body,
// no token needed) so booking notices reach them.
func (h *AuthHandler) BindLine(c echo.Context) error {
	var req bindLineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	staff, err := h.Auth.BindLine(ctx, req.StoreKey, req.Name, req.Password, req.LineUserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, staffPart{ID: staff.ID, Name: staff.Name, StoreID: staff.StoreID, Admin: staff.IsAdmin})
}

// Me returns the caller's scope.
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := scopeOf(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staffPart{ID: s.StaffID, Name: s.StaffName, StoreID: s.StoreID, Admin: s.Admin})
}
