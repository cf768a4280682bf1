package handler

import (
	"github.com/gofiber/fiber/v2"

	"docexpiry/internal/service"
)

// TriggerSweep godoc
// @Summary Run an expiry sweep now
// @Description Blocks until the sweep finishes. Returns 409 while another sweep is running.
// @Tags sweeps
// @Success 200 {object} service.SweepSummary
// @Failure 409 {object} errorPayload
// @Router /sweeps [post]
func TriggerSweep(trigger service.SweepTrigger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if trigger == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SWEEP_UNAVAILABLE", "sweeps are not available on this instance")
		}
		sum, err := trigger.TriggerSweep(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sum)
	}
}
