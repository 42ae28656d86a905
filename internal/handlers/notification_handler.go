package handlers

import (
	"net/http"
	"time"

	"github.com/connecthub/connecthub/internal/services"
	"github.com/connecthub/connecthub/pkg/logger"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /api/notifications
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.Service.GetUserNotifications(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"notifications": notifications})
}

// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.Service.MarkNotificationAsRead(r.Context(), userID, notifID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"msg": "Notification marked as read"})
}

// DELETE /api/notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), userID, notifID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"msg": "Notification deleted"})
}

// POST /api/admin/notifications/cleanup runs the expiry job now.
func (h *NotificationHandler) RunCleanupHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteExpiredNotifications(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	logger.Log.Info("Expired notification cleanup triggered by admin")
	respond(w, http.StatusOK, envelope{"msg": "Expired notifications deleted"})
}

// POST /api/admin/notifications/inactivity runs the inactivity reminder job now.
func (h *NotificationHandler) RunInactivityCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CheckInactiveUsers(r.Context(), time.Now()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	logger.Log.Info("Inactivity check triggered by admin")
	respond(w, http.StatusOK, envelope{"msg": "Inactive users notified"})
}
