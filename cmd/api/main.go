package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"docexpiry/internal/channel"
	"docexpiry/internal/config"
	"docexpiry/internal/database"
	"docexpiry/internal/database/migration"
	handlers "docexpiry/internal/http/handler"
	"docexpiry/internal/http/middleware"
	"docexpiry/internal/i18n"
	"docexpiry/internal/logging"
	"docexpiry/internal/metrics"
	"docexpiry/internal/otel"
	"docexpiry/internal/realtime"
	"docexpiry/internal/repository/postgres"
	"docexpiry/internal/scheduler"
	"docexpiry/internal/service"
	"docexpiry/internal/storage"
)

const shutdownTimeout = 20 * time.Second

// @title Document Expiry API
// @version 1.0
// @BasePath /
func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Str("event", "startup_failed").Err(err).Msg("service stopped")
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logging.Component(log, "otel"))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	var files storage.Storage
	if cfg.MinIO.Configured() {
		files, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
	} else {
		log.Warn().Str("event", "storage_disabled").Msg("object storage not configured, attachments disabled")
	}

	labels, err := i18n.Load()
	if err != nil {
		return err
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(realtime.DefaultBuffer, logging.Component(log, "realtime"))
	defer hub.Close()

	var streamPub realtime.Publisher = hub
	if cfg.Redis.URL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		relay := realtime.NewRedisRelay(client, cfg.Redis.Channel, hub, logging.Component(log, "realtime"))
		streamPub = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error().Str("event", "relay_stopped").Err(err).Msg("realtime relay stopped")
			}
		}()
	}

	chs := service.Channels{
		Fanout: []channel.Channel{channel.NewBroadcast(streamPub)},
		Direct: []channel.Channel{
			channel.NewEmailFromConfig(cfg.Email, files, logging.Component(log, "email")),
			channel.NewSMS(cfg.SMS, cfg.Notify.DeliveryTimeout),
		},
	}
	if cfg.AMQP.URL != "" {
		ev, err := channel.DialEvent(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
		if err != nil {
			log.Error().Str("event", "event_channel_disabled").Err(err).Msg("event channel unavailable")
		} else {
			defer ev.Close()
			chs.Fanout = append(chs.Fanout, ev)
		}
	}

	directory := postgres.NewDirectoryPostgres(db)
	notifications := postgres.NewNotificationPostgres(db)

	dispatchLog := logging.Component(log, "dispatch")
	deliverer := service.NewDeliverer(chs, directory, cfg.Notify.DeliveryTimeout, m, dispatchLog)
	composer := service.NewComposer(labels, service.ComposerConfig{
		Locale:       cfg.Notify.Locale,
		AllowedRoles: cfg.Notify.DefaultRoles,
		TTL:          cfg.Notify.NotificationTTL,
	})
	dispatcher := service.NewDispatcher(notifications, composer, deliverer, m, dispatchLog)
	sweeper := service.NewSweeper(postgres.NewSources(db), dispatcher, m, logging.Component(log, "sweep"))
	deferred := service.NewDeferredSender(notifications, deliverer, m, logging.Component(log, "deferred"))
	notificationSvc := service.NewNotificationService(notifications, deliverer, files, cfg.Notify.AttachmentTTL, logging.Component(log, "notifications"))

	sched := scheduler.New(scheduler.Config{
		SweepSchedule: cfg.Scheduler.SweepSchedule,
		PollSchedule:  cfg.Scheduler.PollSchedule,
		Location:      logging.Location(cfg.Scheduler.Timezone),
		RunOnStart:    cfg.Scheduler.RunOnStart,
	}, sweeper, deferred, logging.Component(log, "scheduler"))
	if cfg.Scheduler.Enabled {
		// jobs are detached from the signal context; Stop bounds them during shutdown
		if err := sched.Start(context.Background()); err != nil {
			return err
		}
	} else {
		log.Info().Str("event", "scheduler_disabled").Msg("scheduler disabled, manual sweeps only")
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logging.Component(log, "http")))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:            db,
		Notifications: notificationSvc,
		Sweeps:        sched,
		Hub:           hub,
		GroupWindow:   cfg.Notify.GroupWindow,
		Gatherer:      prometheus.DefaultGatherer,
	})

	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("event", "http_listening").Str("port", cfg.Port).Msg("http server listening")
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Str("event", "shutdown_started").Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sched.Stop(sctx); err != nil {
		log.Error().Str("event", "scheduler_stop_failed").Err(err).Msg("scheduler did not stop in time")
	}
	// closing the hub ends open event streams so the server can drain
	hub.Close()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info().Str("event", "shutdown_completed").Msg("shutdown complete")
	return nil
}
