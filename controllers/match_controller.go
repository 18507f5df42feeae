package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"waggle_server/models"
	"waggle_server/services"
	"waggle_server/utils"

	"github.com/gorilla/mux"
)

// MatchManager is the match read/update surface the controller needs.
type MatchManager interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	GetMatchesForDog(ctx context.Context, dogID string) ([]models.Match, error)
	GetUserMatches(ctx context.Context, userID string, opts services.UserMatchesOptions) (*models.UserMatchPage, error)
	GetMatchDetails(ctx context.Context, matchID string) (*models.MatchDetails, error)
	UpdateMatchStatus(ctx context.Context, matchID, userID string, status models.MatchStatus) (*models.Match, error)
}

// MatchController handles HTTP requests for match-related actions
type MatchController struct {
	Matches MatchManager
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matches MatchManager) *MatchController {
	return &MatchController{Matches: matches}
}

// GetMatches lists the matches of ?dogId=
func (mc *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	dogID := r.URL.Query().Get("dogId")
	if dogID == "" {
		utils.WriteError(w, http.StatusBadRequest, "dogId is required")
		return
	}

	matches, err := mc.Matches.GetMatchesForDog(r.Context(), dogID)
	if err != nil {
		log.Println("Error fetching matches:", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch matches")
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}

// GetMatch returns a single match
func (mc *MatchController) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := mc.Matches.GetMatch(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeMatchError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, match)
}

// GetUserMatches lists an owner's matches, filtered by ?status= and paged by ?limit=
func (mc *MatchController) GetUserMatches(w http.ResponseWriter, r *http.Request) {
	opts := services.UserMatchesOptions{Status: models.MatchStatus(r.URL.Query().Get("status"))}
	if opts.Status != "" && !opts.Status.Valid() {
		utils.WriteError(w, http.StatusBadRequest, "Unknown status: "+string(opts.Status))
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			utils.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	page, err := mc.Matches.GetUserMatches(r.Context(), mux.Vars(r)["userId"], opts)
	if err != nil {
		writeMatchError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, page)
}

// GetMatchDetails returns a match with both dog profiles
func (mc *MatchController) GetMatchDetails(w http.ResponseWriter, r *http.Request) {
	details, err := mc.Matches.GetMatchDetails(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeMatchError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, details)
}

// UpdateStatus moves a match to a new status on behalf of a dog owner
func (mc *MatchController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string             `json:"userId" validate:"required"`
		Status models.MatchStatus `json:"status" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "userId and status are required")
		return
	}
	if !request.Status.Valid() || request.Status == models.MatchStatusPending {
		utils.WriteError(w, http.StatusBadRequest, "Unknown status: "+string(request.Status))
		return
	}

	match, err := mc.Matches.UpdateMatchStatus(r.Context(), mux.Vars(r)["matchId"], request.UserID, request.Status)
	if err != nil {
		writeMatchError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, match)
}

func writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMatchNotFound), errors.Is(err, services.ErrDogNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Println("Error handling match request:", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to process match request")
	}
}
