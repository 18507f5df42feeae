package routes

import (
	"waggle_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterNotificationRoutes sets up the in-app inbox routes under /api/notifications
func RegisterNotificationRoutes(r *mux.Router, inbox controllers.NotificationInbox) {
	controller := controllers.NewNotificationController(inbox)

	notificationRouter := r.PathPrefix("/api/notifications").Subrouter()
	notificationRouter.HandleFunc("/{userId}", controller.GetNotifications).Methods("GET")
	notificationRouter.HandleFunc("/{userId}/read", controller.MarkAllAsRead).Methods("PATCH")
	notificationRouter.HandleFunc("/{userId}/{notificationId}/read", controller.MarkAsRead).Methods("PATCH")
}
