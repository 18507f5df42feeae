package routes

import (
	"waggle_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match-related operations under /api/match
func RegisterMatchRoutes(r *mux.Router, matches controllers.MatchManager) {
	controller := controllers.NewMatchController(matches)

	matchRouter := r.PathPrefix("/api/match").Subrouter()
	matchRouter.HandleFunc("", controller.GetMatches).Methods("GET") // /api/match?dogId=
	matchRouter.HandleFunc("/user/{userId}", controller.GetUserMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.GetMatch).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/details", controller.GetMatchDetails).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/status", controller.UpdateStatus).Methods("PATCH")
}
