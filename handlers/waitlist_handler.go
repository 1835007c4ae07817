package handlers

import (
	"net/http"

	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/services"
)

type WaitListHandler struct {
	waitListService services.WaitListService
}

func NewWaitListHandler(ws services.WaitListService) *WaitListHandler {
	return &WaitListHandler{waitListService: ws}
}

func (h *WaitListHandler) Join(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.waitListService.Join(r.Context(), eventID, callerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WaitListHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.waitListService.ListWaiting(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entries": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PromoteNext pops the head of the waiting queue into a free slot.
func (h *WaitListHandler) PromoteNext(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.waitListService.PromoteNext(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WaitListHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.waitListService.Cancel(r.Context(), entryID, callerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"canceled": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
