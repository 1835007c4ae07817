package handlers

import (
	"net/http"
	"time"

	"github.com/courtly/club-system/middleware"
	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/services"
)

type EventHandler struct {
	eventService    services.EventService
	groupingService services.GroupingService
	scheduleService services.ScheduleService
	scoreService    services.ScoreService
}

func NewEventHandler(
	es services.EventService,
	gs services.GroupingService,
	ss services.ScheduleService,
	scs services.ScoreService,
) *EventHandler {
	return &EventHandler{
		eventService:    es,
		groupingService: gs,
		scheduleService: ss,
		scoreService:    scs,
	}
}

type eventInput struct {
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	ClubID          int       `json:"club_id"`
	SportID         int       `json:"sport_id"`
	Format          string    `json:"format"`
	GroupCount      *int      `json:"group_count"`
	MaxParticipants int       `json:"max_participants"`
	RegDate         time.Time `json:"reg_date"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input eventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event := &models.Event{
		Name:            input.Name,
		Description:     input.Description,
		ClubID:          input.ClubID,
		SportID:         input.SportID,
		OrganizerID:     organizerID,
		Format:          models.MatchFormat(input.Format),
		GroupCount:      input.GroupCount,
		MaxParticipants: input.MaxParticipants,
		RegDate:         input.RegDate,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
	}
	if err := h.eventService.Create(r.Context(), event); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", "20")
	offset := queryInt(r, "offset", "0")

	events, err := h.eventService.List(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input eventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	event.Name = input.Name
	event.Description = input.Description
	event.Format = models.MatchFormat(input.Format)
	event.GroupCount = input.GroupCount
	event.MaxParticipants = input.MaxParticipants
	event.RegDate = input.RegDate
	event.StartDate = input.StartDate
	event.EndDate = input.EndDate

	if err := h.eventService.Update(r.Context(), event); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.ChangeStatus(r.Context(), eventID, models.EventStatus(input.Status)); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": input.Status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	overview, err := h.eventService.GetOverview(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
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

	url, err := h.eventService.UploadLogo(r.Context(), eventID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"logo_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FormGroups rebuilds the event's groups from the checked-in roster.
func (h *EventHandler) FormGroups(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.groupingService.FormGroups(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group_count": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Schedule regenerates the round-robin match list for every group.
func (h *EventHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scheduleService.ScheduleEvent(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scheduled": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitAllScores verifies every scored, unverified match of the event.
func (h *EventHandler) SubmitAllScores(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.scoreService.SubmitAllScores(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"verified_count": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
