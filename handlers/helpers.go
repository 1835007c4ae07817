package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/courtly/club-system/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", param)
	}
	return id, nil
}

func queryInt(r *http.Request, key, fallbackRaw string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		raw = fallbackRaw
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP translates service-layer sentinel errors into
// HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrClubNotFound),
		errors.Is(err, services.ErrSportNotFound),
		errors.Is(err, services.ErrCourtNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrRatingNotFound),
		errors.Is(err, services.ErrWaitListNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrAssessmentExists),
		errors.Is(err, services.ErrGroupFinalized),
		errors.Is(err, services.ErrTeamAlreadyInGroup),
		errors.Is(err, services.ErrCrossEventMove),
		errors.Is(err, services.ErrTeamFull),
		errors.Is(err, services.ErrEventFull),
		errors.Is(err, services.ErrAlreadyWaitListed):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrGroupCountRequired),
		errors.Is(err, services.ErrTeamsNotCheckedIn),
		errors.Is(err, services.ErrNoEligibleTeams),
		errors.Is(err, services.ErrCourtNumbersRequired),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrInvalidTeamSize),
		errors.Is(err, services.ErrPlayerNotRated),
		errors.Is(err, services.ErrTeamNotCheckedIn),
		errors.Is(err, services.ErrMatchNotPlayed),
		errors.Is(err, services.ErrMatchWithdrawn),
		errors.Is(err, services.ErrInvalidStatusChange),
		errors.Is(err, services.ErrWaitListEntryClosed):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrNotMatchParticipant):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
