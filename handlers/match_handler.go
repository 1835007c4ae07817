package handlers

import (
	"net/http"

	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/services"
)

type MatchHandler struct {
	scoreService services.ScoreService
}

func NewMatchHandler(ss services.ScoreService) *MatchHandler {
	return &MatchHandler{scoreService: ss}
}

// UpdateScore records a score line on behalf of the caller, who must be
// on one of the two teams.
func (h *MatchHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ScoreA int `json:"score_a"`
		ScoreB int `json:"score_b"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.UpdateScore(r.Context(), callerID, matchID, input.ScoreA, input.ScoreB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) VerifyScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.VerifyScore(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoreService.WithdrawMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"withdrawn": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
