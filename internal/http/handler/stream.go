package handler

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"docexpiry/internal/realtime"
)

// DefaultHeartbeat is the interval between keep-alive comments on the event stream.
const DefaultHeartbeat = 25 * time.Second

// StreamNotifications godoc
// @Summary Live notification stream
// @Description Server-Sent Events. Each pushed notification is one data line holding a JSON object.
// @Tags notifications
// @Produce text/event-stream
// @Success 200
// @Router /notifications/stream [get]
func StreamNotifications(hub *realtime.Hub, heartbeat time.Duration) fiber.Handler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		sub := hub.Register()
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(sub)

			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()

			fmt.Fprint(w, ": connected\n\n")
			if err := w.Flush(); err != nil {
				return
			}
			for {
				select {
				case payload, ok := <-sub.C():
					if !ok {
						return
					}
					fmt.Fprintf(w, "data: %s\n\n", payload)
				case <-ticker.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				// a failed flush means the client went away
				if err := w.Flush(); err != nil {
					return
				}
			}
		}))
		return nil
	}
}
