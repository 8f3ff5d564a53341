package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/config"
	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/utils"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func scopeEcho(secret string) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(secret))
	g.GET("/whoami", func(c echo.Context) error {
		s, ok := ScopeFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"store": s.StoreID, "staff": s.StaffID})
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireRole(RoleAdmin))
	return e
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthBuildsScope(t *testing.T) {
	e := scopeEcho("s3cret")
	tok, err := utils.NewAccessToken("s3cret", model.Staff{ID: 5, StoreID: 2, Name: "小林"}, 5)
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/v1/whoami", tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"store":2,"staff":5}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/whoami", "garbage").Code)
}

func TestRequireRole(t *testing.T) {
	e := scopeEcho("s3cret")
	staff, err := utils.NewAccessToken("s3cret", model.Staff{ID: 5, StoreID: 2}, 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken("s3cret", model.Staff{ID: 1, StoreID: 2, IsAdmin: true}, 5)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/admin", staff.Token).Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/v1/admin", admin.Token).Code)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "test:rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zap.NewNop()))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
	rec := do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestRedisCacheIsStoreScoped(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "store_route_query", Prefix: "test:cache",
	}
	calls := 0
	e := echo.New()
	g := e.Group("/v1", JWTAuth("s3cret"), NewRedisCache(cfg, rdb))
	g.GET("/report", func(c echo.Context) error {
		calls++
		s, _ := ScopeFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"store": s.StoreID})
	})

	t1, err := utils.NewAccessToken("s3cret", model.Staff{ID: 1, StoreID: 1}, 5)
	require.NoError(t, err)
	t2, err := utils.NewAccessToken("s3cret", model.Staff{ID: 2, StoreID: 2}, 5)
	require.NoError(t, err)

	first := do(e, http.MethodGet, "/v1/report?day=2026-08-03", t1.Token)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/v1/report?day=2026-08-03", t1.Token)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	other := do(e, http.MethodGet, "/v1/report?day=2026-08-03", t2.Token)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"store":2}`, other.Body.String())
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSeparatesAdminAndStaffViews(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "store_route_query", Prefix: "test:cache",
	}
	e := echo.New()
	g := e.Group("/v1", JWTAuth("s3cret"), NewRedisCache(cfg, rdb))
	g.GET("/report", func(c echo.Context) error {
		s, _ := ScopeFrom(c)
		if s.Admin {
			return c.JSON(http.StatusOK, echo.Map{"text": "10:00 王小明"})
		}
		return c.JSON(http.StatusOK, echo.Map{"text": "10:00 王*明"})
	})

	admin, err := utils.NewAccessToken("s3cret", model.Staff{ID: 1, StoreID: 1, IsAdmin: true}, 5)
	require.NoError(t, err)
	staff, err := utils.NewAccessToken("s3cret", model.Staff{ID: 2, StoreID: 1}, 5)
	require.NoError(t, err)

	first := do(e, http.MethodGet, "/v1/report?day=2026-08-03", admin.Token)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Contains(t, first.Body.String(), "王小明")

	masked := do(e, http.MethodGet, "/v1/report?day=2026-08-03", staff.Token)
	assert.Equal(t, "MISS", masked.Header().Get("X-Cache"))
	assert.NotContains(t, masked.Body.String(), "王小明")

	again := do(e, http.MethodGet, "/v1/report?day=2026-08-03", admin.Token)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Contains(t, again.Body.String(), "王小明")
}

func TestEvictCacheAfterWrite(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "store_route_query", Prefix: "test:cache",
	}
	slots := 0
	e := echo.New()
	g := e.Group("/v1", JWTAuth("s3cret"))
	g.GET("/report", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"slots": slots})
	}, NewRedisCache(cfg, rdb))
	g.POST("/bookings", func(c echo.Context) error {
		slots++
		return c.NoContent(http.StatusCreated)
	}, EvictCache(cfg, rdb))
	g.POST("/broken", func(c echo.Context) error {
		return c.NoContent(http.StatusConflict)
	}, EvictCache(cfg, rdb))

	tok, err := utils.NewAccessToken("s3cret", model.Staff{ID: 2, StoreID: 1}, 5)
	require.NoError(t, err)

	assert.Equal(t, "MISS", do(e, http.MethodGet, "/v1/report", tok.Token).Header().Get("X-Cache"))
	assert.Equal(t, "HIT", do(e, http.MethodGet, "/v1/report", tok.Token).Header().Get("X-Cache"))

	assert.Equal(t, http.StatusConflict, do(e, http.MethodPost, "/v1/broken", tok.Token).Code)
	assert.Equal(t, "HIT", do(e, http.MethodGet, "/v1/report", tok.Token).Header().Get("X-Cache"))

	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/v1/bookings", tok.Token).Code)
	fresh := do(e, http.MethodGet, "/v1/report", tok.Token)
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"slots":1}`, fresh.Body.String())
}

func TestEventDeduper(t *testing.T) {
	rdb := newRedis(t)
	d := NewEventDeduper(rdb, time.Minute, zap.NewNop())
	ctx := context.Background()

	assert.True(t, d.FirstSeen(ctx, "01HEVENT"))
	assert.False(t, d.FirstSeen(ctx, "01HEVENT"))
	assert.True(t, d.FirstSeen(ctx, "01HOTHER"))
	assert.True(t, d.FirstSeen(ctx, ""))

	var off *EventDeduper
	assert.True(t, off.FirstSeen(ctx, "01HEVENT"))
	assert.True(t, NewEventDeduper(nil, 0, nil).FirstSeen(ctx, "01HEVENT"))
}
