package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-bot/internal/middleware"
	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
	"github.com/iliyamo/spa-booking-bot/internal/service"
)

// dbTimeout bounds the database work of one admin request.
const dbTimeout = 5 * time.Second

// requestCtx derives the per-request deadline used for DB calls.
func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownLanguage):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "staff member is already booked in that window"})
	case errors.Is(err, repository.ErrDuplicateSerial):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket serial already exists"})
	case errors.Is(err, repository.ErrQuotaExhausted):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "public relations quota exhausted"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// scopeOf returns the caller's store scope.  Routes are registered behind
// JWTAuth, so a missing scope is a wiring bug reported as 401.
func scopeOf(c echo.Context) (model.StoreScope, error) {
	s, ok := middleware.ScopeFrom(c)
	if !ok {
		return model.StoreScope{}, echo.NewHTTPError(http.StatusUnauthorized, "missing scope")
	}
	return s, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// dayParam reads ?day=YYYY-MM-DD in loc, defaulting to today.
func dayParam(c echo.Context, loc *time.Location, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(c.QueryParam("day"))
	if raw == "" {
		return now.In(loc), true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	return d, err == nil
}

// daysParam reads ?days=N (1..31, default 1).
func daysParam(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("days"))
	if err != nil || n < 1 {
		return 1
	}
	if n > 31 {
		return 31
	}
	return n
}

func boolParam(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

func errIsNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }
