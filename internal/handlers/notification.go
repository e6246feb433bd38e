package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docket-service/internal/repositories"
)

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) ListMine(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead marks one notification read. Scoped to the caller so users
// cannot touch each other's inboxes.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	notificationID, ok := pathID(c, "notification_id")
	if !ok {
		return
	}

	err := h.notifications.MarkRead(c.Request.Context(), notificationID, userID)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
