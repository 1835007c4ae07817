package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/ratings"
	"github.com/courtly/club-system/services"
)

var (
	errMissingRatingKey   = errors.New("sport_id and format query parameters are required")
	errInvalidScaleValue  = errors.New("value query parameter must be a number")
	errInvalidScaleTarget = errors.New("to query parameter must be srr or ubr")
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(rs services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: rs}
}

// SubmitAssessment creates the caller's initial rating for a sport and
// format from a self-assessment answer set.
func (h *RatingHandler) SubmitAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		SportID int                       `json:"sport_id"`
		Format  string                    `json:"format"`
		Answers []models.AssessmentAnswer `json:"answers"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rating, err := h.ratingService.SubmitAssessment(r.Context(), userID, input.SportID, models.MatchFormat(input.Format), input.Answers)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"rating": rating}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	sportID := queryInt(r, "sport_id", "0")
	format := r.URL.Query().Get("format")
	if sportID <= 0 || format == "" {
		badRequestResponse(w, r, errMissingRatingKey)
		return
	}

	rating, err := h.ratingService.GetRating(r.Context(), userID, sportID, models.MatchFormat(format))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rating": rating}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) ListUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	list, err := h.ratingService.ListUserRatings(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ratings": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit := queryInt(r, "limit", "50")

	history, err := h.ratingService.History(r.Context(), userID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConvertScale translates a rating between the universal scale and the
// internal one. Query: value=<number>&to=srr|ubr.
func (h *RatingHandler) ConvertScale(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badRequestResponse(w, r, errInvalidScaleValue)
		return
	}

	var converted float64
	switch r.URL.Query().Get("to") {
	case "srr":
		converted = ratings.UBRToSRR(value)
	case "ubr":
		converted = ratings.SRRToUBR(value)
	default:
		badRequestResponse(w, r, errInvalidScaleTarget)
		return
	}

	response := jsonResponse{"value": value, "converted": converted}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
