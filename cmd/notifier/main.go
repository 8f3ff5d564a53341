// Command notifier delivers staff booking notices published by the server
// when NOTIFY_MODE=queue.
package main

import (
	"context"
	"errors"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/config"
	"github.com/iliyamo/spa-booking-bot/internal/database"
	"github.com/iliyamo/spa-booking-bot/internal/httpclient"
	"github.com/iliyamo/spa-booking-bot/internal/linebot"
	"github.com/iliyamo/spa-booking-bot/internal/logger"
	"github.com/iliyamo/spa-booking-bot/internal/metrics"
	"github.com/iliyamo/spa-booking-bot/internal/queue"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
	"github.com/iliyamo/spa-booking-bot/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "spa-booking-notifier")
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	integ, err := config.LoadIntegrations()
	if err != nil {
		log.Fatal("config", zap.Error(err))
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
	metrics.Register()

	bot, err := linebot.New(integ.LineAccessToken, integ.LineAPIEndpoint, httpclient.FromIntegrations(integ).Client(), traffic)
	if err != nil {
		log.Fatal("line client", zap.Error(err))
	}
	links := service.ConfirmLinks{BaseURL: cfg.PublicBaseURL, Secret: cfg.JWTSecret}
	push := service.NewPushDispatcher(repository.NewStaffRepo(db), bot, stores, links, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("consuming staff notices", zap.String("queue", queue.NoticeQueueName))
	err = queue.StartNoticeConsumer(ctx, cfg.AMQPURL, log, func(ctx context.Context, ev queue.NoticeEvent) error {
		n, err := service.NoticeFromEvent(ev)
		if err != nil {
			return err
		}
		return push.Dispatch(ctx, n)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", zap.Error(err))
	}
	log.Info("notifier stopped")
}
