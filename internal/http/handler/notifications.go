package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docexpiry/internal/model"
	"docexpiry/internal/repository"
	"docexpiry/internal/service"
)

// ListNotifications godoc
// @Summary List notifications
// @Tags notifications
// @Param user_id query string false "recipient user"
// @Param owner_id query string false "owning company"
// @Param archived query bool false "archived flag"
// @Param from query string false "created at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "created at or before (RFC3339 or YYYY-MM-DD)"
// @Param role query string false "visible to role"
// @Param limit query int false "page size" default(50)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.NotificationListResult
// @Router /notifications [get]
func ListNotifications(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f repository.NotificationFilter

		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		f.Limit, f.Offset = limit, offset

		f.UserID = optionalQuery(c, "user_id")
		f.OwnerID = optionalQuery(c, "owner_id")
		f.Role = strings.TrimSpace(c.Query("role"))

		if v := c.Query("archived"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ARCHIVED", "archived must be a boolean")
			}
			f.Archived = &b
		}
		if f.From, err = timeQuery(c, "from", false); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FROM", "from must be RFC3339 or YYYY-MM-DD")
		}
		if f.To, err = timeQuery(c, "to", true); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TO", "to must be RFC3339 or YYYY-MM-DD")
		}

		res, err := svc.List(c.UserContext(), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateNotification godoc
// @Summary Create a notification
// @Description Delivered immediately unless scheduled_at is in the future.
// @Tags notifications
// @Accept json
// @Param body body service.CreateNotificationInput true "notification"
// @Success 201 {object} model.Notification
// @Router /notifications [post]
func CreateNotification(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateNotificationInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		n, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(n)
	}
}

// NotificationGroups godoc
// @Summary Group recent notifications
// @Tags notifications
// @Param user_id query string false "recipient user"
// @Param days query int false "window in days" default(7)
// @Success 200 {array} model.NotificationGroup
// @Router /notifications/groups [get]
func NotificationGroups(svc service.NotificationService, defaultWindow time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		window := defaultWindow
		if v := c.Query("days"); v != "" {
			days, err := strconv.Atoi(v)
			if err != nil || days <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DAYS", "days must be a positive integer")
			}
			window = time.Duration(days) * 24 * time.Hour
		}
		groups, err := svc.Groups(c.UserContext(), optionalQuery(c, "user_id"), window)
		if err != nil {
			return writeServiceError(c, err)
		}
		if groups == nil {
			groups = []model.NotificationGroup{}
		}
		return c.JSON(fiber.Map{"data": groups})
	}
}

// GetNotification godoc
// @Summary Get a notification
// @Tags notifications
// @Param id path string true "notification id"
// @Success 200 {object} model.Notification
// @Router /notifications/{id} [get]
func GetNotification(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := notificationID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		n, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}

// ArchiveNotification godoc
// @Summary Archive a notification
// @Tags notifications
// @Param id path string true "notification id"
// @Success 204
// @Router /notifications/{id}/archive [patch]
func ArchiveNotification(svc service.NotificationService) fiber.Handler {
	return mutate(svc.Archive)
}

// MarkNotificationRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Param id path string true "notification id"
// @Success 204
// @Router /notifications/{id}/read [patch]
func MarkNotificationRead(svc service.NotificationService) fiber.Handler {
	return mutate(svc.MarkRead)
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Param id path string true "notification id"
// @Success 204
// @Router /notifications/{id} [delete]
func DeleteNotification(svc service.NotificationService) fiber.Handler {
	return mutate(svc.Delete)
}

type actionRequest struct {
	Status string `json:"status"`
}

// UpdateNotificationAction godoc
// @Summary Update the action status
// @Tags notifications
// @Accept json
// @Param id path string true "notification id"
// @Param body body actionRequest true "pending, resolved or dismissed"
// @Success 204
// @Router /notifications/{id}/action [patch]
func UpdateNotificationAction(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := notificationID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req actionRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := svc.UpdateActionStatus(c.UserContext(), id, strings.TrimSpace(req.Status)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// NotificationAttachment godoc
// @Summary Download the attached document
// @Description Redirects to a short-lived presigned URL.
// @Tags notifications
// @Param id path string true "notification id"
// @Success 302
// @Router /notifications/{id}/attachment [get]
func NotificationAttachment(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := notificationID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.AttachmentURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}

func mutate(op func(ctx context.Context, id string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := notificationID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := op(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func notificationID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// timeQuery accepts RFC3339 or a civil date. A civil date used as an upper bound covers the whole day.
func timeQuery(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
