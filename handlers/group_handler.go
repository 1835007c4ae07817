package handlers

import (
	"net/http"

	"github.com/courtly/club-system/services"
)

type GroupHandler struct {
	groupingService services.GroupingService
	scheduleService services.ScheduleService
}

func NewGroupHandler(gs services.GroupingService, ss services.ScheduleService) *GroupHandler {
	return &GroupHandler{groupingService: gs, scheduleService: ss}
}

func (h *GroupHandler) MoveTeam(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TeamID int `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupingService.MoveTeam(r.Context(), input.TeamID, groupID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"moved": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) UpdateCourtNumbers(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		CourtNumbers string `json:"court_numbers"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupingService.UpdateCourtNumbers(r.Context(), groupID, input.CourtNumbers); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court_numbers": input.CourtNumbers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupingService.FinalizeGroup(r.Context(), groupID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"finalized": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Schedule regenerates the round-robin matches of one group.
func (h *GroupHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.scheduleService.ScheduleGroupByID(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match_count": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
