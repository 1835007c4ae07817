package handlers

import (
	"net/http"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/services"
)

type SportHandler struct {
	sportService services.SportService
}

func NewSportHandler(ss services.SportService) *SportHandler {
	return &SportHandler{sportService: ss}
}

func (h *SportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport := &models.Sport{Name: input.Name}
	if err := h.sportService.Create(r.Context(), sport); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"sport": sport}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport, err := h.sportService.GetByID(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sport": sport}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) List(w http.ResponseWriter, r *http.Request) {
	sports, err := h.sportService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sports": sports}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) Update(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport := &models.Sport{ID: sportID, Name: input.Name}
	if err := h.sportService.Update(r.Context(), sport); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sport": sport}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.sportService.Delete(r.Context(), sportID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
