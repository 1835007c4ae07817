package handlers

import (
	"net/http"

	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

func (h *TeamHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name     string `json:"name"`
		TeamSize int    `json:"team_size"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Register(r.Context(), eventID, input.Name, input.TeamSize)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.teamService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinTeam adds the caller to the team roster.
func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.AddMember(r.Context(), teamID, callerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"joined": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.RemoveMember(r.Context(), teamID, callerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"left": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.CheckIn(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"checked_in": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.Withdraw(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"withdrawn": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
