package routes

import (
	"waggle_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterActionRoutes sets up routes for swipe actions under /api/action
func RegisterActionRoutes(r *mux.Router, likes controllers.LikeWriter) {
	controller := controllers.NewActionController(likes)

	actionRouter := r.PathPrefix("/api/action").Subrouter()
	actionRouter.HandleFunc("/like", controller.HandleLike).Methods("POST")
}
