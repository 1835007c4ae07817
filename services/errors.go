package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business-rule errors
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrGroupCountRequired   = errors.New("event does not declare a group count")
	ErrTeamsNotCheckedIn    = errors.New("grouping requires every registered team to be checked in")
	ErrNoEligibleTeams      = errors.New("event has no checked-in teams to group")
	ErrCourtNumbersRequired = errors.New("at least one court number is required")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrInvalidTeamSize      = errors.New("team size does not match the event format")
	ErrPlayerNotRated       = errors.New("player has no rating for this sport and format")
	ErrAssessmentExists     = errors.New("player already submitted a self-assessment for this sport and format")

	// Conflict errors
	ErrGroupFinalized     = errors.New("group is finalized, courts can no longer be reassigned")
	ErrTeamAlreadyInGroup = errors.New("team is already assigned to the target group")
	ErrCrossEventMove     = errors.New("team and target group belong to different events")
	ErrTeamFull           = errors.New("team already has its full roster")
	ErrEventFull          = errors.New("event is at participant capacity")
	ErrAlreadyWaitListed  = errors.New("user is already on the waitlist for this event")
	ErrUserEmailConflict  = errors.New("email address is already in use")

	// State errors
	ErrTeamNotCheckedIn    = errors.New("only checked-in teams can be moved between groups")
	ErrMatchNotPlayed      = errors.New("cannot verify a match with no score recorded")
	ErrMatchWithdrawn      = errors.New("match has been withdrawn from play")
	ErrInvalidStatusChange = errors.New("invalid event status transition")
	ErrNotMatchParticipant = errors.New("caller is not a participant of either team in this match")
	ErrWaitListEntryClosed = errors.New("waitlist entry is no longer waiting")

	// Entity-specific not-found errors
	ErrUserNotFound     = errors.New("user not found")
	ErrClubNotFound     = errors.New("club not found")
	ErrSportNotFound    = errors.New("sport not found")
	ErrCourtNotFound    = errors.New("court not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrGroupNotFound    = errors.New("match group not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrRatingNotFound   = errors.New("player rating not found")
	ErrWaitListNotFound = errors.New("waitlist entry not found")
)
