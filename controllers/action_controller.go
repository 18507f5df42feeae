package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"waggle_server/models"
	"waggle_server/services"
	"waggle_server/utils"
)

// LikeWriter records swipes.
type LikeWriter interface {
	AddLike(ctx context.Context, dogID, targetDogID string) (*models.LikeRecord, error)
}

// ActionController handles HTTP requests for swipe actions
type ActionController struct {
	Likes LikeWriter
}

// NewActionController creates a new ActionController instance
func NewActionController(likes LikeWriter) *ActionController {
	return &ActionController{Likes: likes}
}

// HandleLike appends targetDogId to dogId's likes. Matching happens
// asynchronously when the like record change is delivered.
func (ac *ActionController) HandleLike(w http.ResponseWriter, r *http.Request) {
	var request struct {
		DogID       string `json:"dogId" validate:"required"`
		TargetDogID string `json:"targetDogId" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Println("Invalid request payload:", err)
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(request); err != nil {
		log.Println("Missing required fields in /like request")
		utils.WriteError(w, http.StatusBadRequest, "dogId and targetDogId are required")
		return
	}

	record, err := ac.Likes.AddLike(r.Context(), request.DogID, request.TargetDogID)
	if errors.Is(err, services.ErrInvalidLike) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Println("Error recording like:", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to record like")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Dog liked successfully",
		"likes":   record.Likes,
	})
}
