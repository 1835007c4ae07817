package handlers

import (
	"net/http"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/services"
)

type ClubHandler struct {
	clubService  services.ClubService
	courtService services.CourtService
}

func NewClubHandler(cs services.ClubService, crs services.CourtService) *ClubHandler {
	return &ClubHandler{clubService: cs, courtService: crs}
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string  `json:"name"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	club := &models.Club{Name: input.Name, Address: input.Address, Phone: input.Phone}
	if err := h.clubService.Create(r.Context(), club); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"club": club}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	club, err := h.clubService.GetByID(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"club": club}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", "20")
	offset := queryInt(r, "offset", "0")

	clubs, err := h.clubService.List(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"clubs": clubs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	club, err := h.clubService.GetByID(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input struct {
		Name    string  `json:"name"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	club.Name = input.Name
	club.Address = input.Address
	club.Phone = input.Phone

	if err := h.clubService.Update(r.Context(), club); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"club": club}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	url, err := h.clubService.UploadLogo(r.Context(), clubID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"logo_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.clubService.Delete(r.Context(), clubID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClubHandler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Label  string `json:"label"`
		Indoor bool   `json:"indoor"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court := &models.Court{ClubID: clubID, Label: input.Label, Indoor: input.Indoor}
	if err := h.courtService.Create(r.Context(), court); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) ListCourts(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	courts, err := h.courtService.ListByClub(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ClubHandler) DeleteCourt(w http.ResponseWriter, r *http.Request) {
	courtID, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.courtService.Delete(r.Context(), courtID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
