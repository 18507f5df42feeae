package routes

import (
	"time"

	"waggle_server/controllers"
	"waggle_server/services"

	"github.com/gorilla/mux"
)

// RegisterTriggerRoutes sets up the webhook entry points under /api/triggers
func RegisterTriggerRoutes(r *mux.Router, handler services.LikeEventHandler, timeout time.Duration) {
	controller := controllers.NewTriggerController(handler, timeout)

	triggerRouter := r.PathPrefix("/api/triggers").Subrouter()
	triggerRouter.HandleFunc("/likes", controller.HandleLikeUpdate).Methods("POST")
}
