package handlers

import (
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	limit, offset := pagination(c)
	ctx := c.UserContext()

	items, total, err := h.notificationService.List(ctx, userID, c.QueryBool("unread"), limit, offset)
	if err != nil {
		return writeError(c, err, "Failed to fetch notifications")
	}
	unread, err := h.notificationService.UnreadCount(ctx, userID)
	if err != nil {
		return writeError(c, err, "Failed to fetch notifications")
	}

	return c.JSON(dto.NotificationListResponse{
		Notifications: items,
		Total:         total,
		Unread:        unread,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.MarkRead(c.UserContext(), userID, id); err != nil {
		return writeError(c, err, "Failed to update notification")
	}
	return c.JSON(dto.MessageResponse{Message: "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	n, err := h.notificationService.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err, "Failed to update notifications")
	}
	return c.JSON(dto.MarkReadResponse{Updated: n})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.Delete(c.UserContext(), userID, id); err != nil {
		return writeError(c, err, "Failed to delete notification")
	}
	return c.JSON(dto.MessageResponse{Message: "Notification deleted"})
}
