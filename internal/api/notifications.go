package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// NotificationsHandler serves the caller's in-app notification feed.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications?limit=N.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	list, err := store.ListNotifications(r.Context(), h.DB, c.UserID, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := store.MarkNotificationRead(r.Context(), h.DB, id, c.UserID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "notification not found")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	if err := store.MarkAllNotificationsRead(r.Context(), h.DB, c.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "all notifications marked read"})
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	count, err := store.CountUnreadNotifications(r.Context(), h.DB, c.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"unread": count})
}
