// README: Notification inbox handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parcelway/internal/modules/notification"
)

type NotificationHandler struct {
	notification *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{notification: svc}
}

// List returns the caller's notifications; ?unread=true limits to unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	ns, err := h.notification.ListByUser(c.Request.Context(), callerID(c), unreadOnly)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ns))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notification.UnreadCount(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"count": n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notification.MarkRead(c.Request.Context(), id, callerID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notification.MarkAllRead(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"updated": n})
}
