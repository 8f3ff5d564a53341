package main // Entry point package

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/config"
	"github.com/iliyamo/spa-booking-bot/internal/database"
	"github.com/iliyamo/spa-booking-bot/internal/handler"
	"github.com/iliyamo/spa-booking-bot/internal/httpclient"
	"github.com/iliyamo/spa-booking-bot/internal/linebot"
	"github.com/iliyamo/spa-booking-bot/internal/logger"
	"github.com/iliyamo/spa-booking-bot/internal/metrics"
	"github.com/iliyamo/spa-booking-bot/internal/middleware"
	"github.com/iliyamo/spa-booking-bot/internal/nlp"
	"github.com/iliyamo/spa-booking-bot/internal/queue"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
	"github.com/iliyamo/spa-booking-bot/internal/router"
	"github.com/iliyamo/spa-booking-bot/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "spa-booking-bot")
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	integ, err := config.LoadIntegrations()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.DBTimezone)
	if err != nil {
		log.Fatal("timezone", zap.String("tz", cfg.DBTimezone), zap.Error(err))
	}
	stores, err := config.LoadStores(cfg.StoresFile)
	if err != nil {
		log.Fatal("store directory", zap.Error(err))
	}
	traffic, closeTraffic, err := logger.NewTrafficLogger(cfg.TrafficLogPath)
	if err != nil {
		log.Fatal("traffic log", zap.Error(err))
	}
	defer func() { _ = closeTraffic() }()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName, Timezone: cfg.DBTimezone,
	})
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	metrics.Register()

	// outbound collaborators
	policy := httpclient.FromIntegrations(integ)
	bot, err := linebot.New(integ.LineAccessToken, integ.LineAPIEndpoint, policy.Client(), traffic)
	if err != nil {
		log.Fatal("line client", zap.Error(err))
	}
	gateway := nlp.NewClient(integ.NLPBaseURL, integ.NLPTimeout, policy, log, traffic)

	// repositories
	storeRepo := repository.NewStoreRepo(db)
	staffRepo := repository.NewStaffRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	groupRepo := repository.NewGroupRepo(db)

	var notifier service.Notifier
	switch cfg.NotifyMode {
	case config.NotifyQueue:
		notifier = service.NewQueueDispatcher(queue.NewPublisher(cfg.AMQPURL, log))
		log.Info("staff notices go through the queue", zap.String("queue", queue.NoticeQueueName))
	default:
		links := service.ConfirmLinks{BaseURL: cfg.PublicBaseURL, Secret: cfg.JWTSecret}
		notifier = service.NewPushDispatcher(staffRepo, bot, stores, links, log)
	}

	// services
	ledger := service.NewBookingLedger(bookingRepo, staffRepo, repository.NewCourseRepo(db), notifier, log)
	tickets := service.NewTicketLedger(repository.NewTicketRepo(db), staffRepo, loc)
	reports := service.NewReports(bookingRepo, messageRepo, storeRepo, stores, loc)
	broadcaster := service.NewDigestBroadcaster(reports, groupRepo, bot)
	auth := service.NewStaffAuth(storeRepo, staffRepo, cfg.JWTSecret, cfg.AccessTTLMin)

	// handlers
	wh := handler.NewWebhookHandler(integ.LineChannelSecret, bot, gateway,
		service.NewLanguages(repository.NewLanguageRepo(db)), groupRepo,
		middleware.NewEventDeduper(rdb, integ.WebhookDedupTTL, log), log, traffic)
	reportHandler := handler.NewReportHandler(reports, broadcaster, loc)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cacheCfg := config.LoadCacheConfig()
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	evict := middleware.EvictCache(cacheCfg, rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	router.RegisterRoutes(e, db, wh, handler.NewConfirmHandler(ledger, cfg.JWTSecret))
	router.RegisterAuth(e, handler.NewAuthHandler(auth), cfg.JWTSecret)
	router.RegisterStaff(e, router.StaffHandlers{
		Bookings: handler.NewBookingHandler(ledger, loc),
		Tickets:  handler.NewTicketHandler(tickets),
		Board:    handler.NewBoardHandler(service.NewBoard(messageRepo)),
		Members:  handler.NewMemberHandler(service.NewMembers(storeRepo, repository.NewMemberRepo(db))),
		Reports:  reportHandler,
	}, cfg.JWTSecret, limiter, cache, evict)
	router.RegisterAdmin(e, reportHandler, cfg.JWTSecret, limiter, cache)
	router.RegisterPreBook(e, handler.NewPreBookHandler(service.NewPreBookings(repository.NewPreBookRepo(db)), loc),
		cfg.JWTSecret, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("notify", cfg.NotifyMode))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
