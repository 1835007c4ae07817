package models

import "time"

// EventStatus mirrors the ENUM in the events table.
type EventStatus string

const (
	EventStatusDraft        EventStatus = "draft"
	EventStatusRegistration EventStatus = "registration"
	EventStatusActive       EventStatus = "active"
	EventStatusCompleted    EventStatus = "completed"
	EventStatusCanceled     EventStatus = "canceled"
)

type Event struct {
	ID                  int         `json:"id" db:"id"`
	Name                string      `json:"name" db:"name"`
	Description         *string     `json:"description,omitempty" db:"description"`
	ClubID              int         `json:"club_id" db:"club_id"`
	SportID             int         `json:"sport_id" db:"sport_id"`
	OrganizerID         int         `json:"organizer_id" db:"organizer_id"`
	Format              MatchFormat `json:"format" db:"format"`
	GroupCount          *int        `json:"group_count,omitempty" db:"group_count"`
	MaxParticipants     int         `json:"max_participants" db:"max_participants"`
	CurrentParticipants int         `json:"current_participants" db:"current_participants"`
	RegDate             time.Time   `json:"reg_date" db:"reg_date"`
	StartDate           time.Time   `json:"start_date" db:"start_date"`
	EndDate             time.Time   `json:"end_date" db:"end_date"`
	Status              EventStatus `json:"status" db:"status"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Optional linked entities, populated by services.
	Club   *Club        `json:"club,omitempty" db:"-"`
	Sport  *Sport       `json:"sport,omitempty" db:"-"`
	Teams  []Team       `json:"teams,omitempty" db:"-"`
	Groups []MatchGroup `json:"groups,omitempty" db:"-"`
}
