package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"waggle_server/models"
	"waggle_server/services"
	"waggle_server/utils"

	"github.com/gorilla/mux"
)

// NotificationInbox is the inbox surface the controller needs.
type NotificationInbox interface {
	GetUserNotifications(ctx context.Context, userID, cursor string, limit int32) (*models.NotificationPage, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
}

// NotificationController handles HTTP requests for a user's in-app notifications
type NotificationController struct {
	Inbox NotificationInbox
}

// NewNotificationController creates a new NotificationController instance
func NewNotificationController(inbox NotificationInbox) *NotificationController {
	return &NotificationController{Inbox: inbox}
}

// GetNotifications returns one page of the user's inbox, newest first
func (nc *NotificationController) GetNotifications(w http.ResponseWriter, r *http.Request) {
	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 {
			utils.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = int32(n)
	}

	page, err := nc.Inbox.GetUserNotifications(r.Context(), mux.Vars(r)["userId"], r.URL.Query().Get("cursor"), limit)
	if errors.Is(err, services.ErrInvalidCursor) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Println("Error fetching notifications:", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, page)
}

// MarkAsRead marks a single notification read
func (nc *NotificationController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := nc.Inbox.MarkAsRead(r.Context(), vars["notificationId"], vars["userId"])
	if errors.Is(err, services.ErrNotificationNotFound) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Println("Error marking notification read:", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllAsRead marks every unread notification of the user read
func (nc *NotificationController) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	marked, err := nc.Inbox.MarkAllAsRead(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		log.Println("Error marking notifications read:", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]int{"marked": marked})
}
