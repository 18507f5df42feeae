package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"waggle_server/models"
	"waggle_server/services"
	"waggle_server/utils"
)

// TriggerController receives like-record change events delivered by webhook.
type TriggerController struct {
	Handler services.LikeEventHandler
	Timeout time.Duration
}

// NewTriggerController creates a new TriggerController instance
func NewTriggerController(handler services.LikeEventHandler, timeout time.Duration) *TriggerController {
	return &TriggerController{Handler: handler, Timeout: timeout}
}

// HandleLikeUpdate runs one before/after snapshot through the match pipeline.
// A 500 asks the sender to redeliver; redelivery is safe.
func (tc *TriggerController) HandleLikeUpdate(w http.ResponseWriter, r *http.Request) {
	var event models.LikeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(event); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "dogId is required")
		return
	}

	ctx := r.Context()
	if tc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tc.Timeout)
		defer cancel()
	}

	result, err := tc.Handler.HandleLikeUpdate(ctx, event)
	if err != nil {
		log.Printf("❌ Like trigger for dog %s failed: %v", event.DogID, err)
		utils.WriteJSONResponse(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  "Failed to process like event",
			"result": result,
		})
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, result)
}
