package handler

import (
	"database/sql"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docexpiry/docs"
	"docexpiry/internal/realtime"
	"docexpiry/internal/service"
)

// Deps are the collaborators the HTTP surface needs. Hub may be nil to disable the event stream.
type Deps struct {
	DB            *sql.DB
	Notifications service.NotificationService
	Sweeps        service.SweepTrigger
	Hub           *realtime.Hub
	Heartbeat     time.Duration
	GroupWindow   time.Duration
	Gatherer      prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", Liveness())

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	app.Post("/sweeps", TriggerSweep(d.Sweeps))

	n := app.Group("/notifications")
	n.Get("/", ListNotifications(d.Notifications))
	n.Post("/", CreateNotification(d.Notifications))
	n.Get("/groups", NotificationGroups(d.Notifications, d.GroupWindow))
	if d.Hub != nil {
		n.Get("/stream", StreamNotifications(d.Hub, d.Heartbeat))
	}
	n.Get("/:id", GetNotification(d.Notifications))
	n.Get("/:id/attachment", NotificationAttachment(d.Notifications))
	n.Patch("/:id/archive", ArchiveNotification(d.Notifications))
	n.Patch("/:id/read", MarkNotificationRead(d.Notifications))
	n.Patch("/:id/action", UpdateNotificationAction(d.Notifications))
	n.Delete("/:id", DeleteNotification(d.Notifications))
}
