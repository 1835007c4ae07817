package handlers

import (
	"net/http"

	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	if input.Email != "" {
		user.Email = input.Email
	}

	if err := h.userService.UpdateProfile(r.Context(), user); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	url, err := h.userService.UploadAvatar(r.Context(), userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"avatar_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
