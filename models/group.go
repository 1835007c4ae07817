package models

import "time"

// MatchGroup is a bracket of teams playing a round-robin against each
// other. Teams reference their group through Team.GroupID; the Teams
// slice here is a convenience load, not the owning side.
type MatchGroup struct {
	ID           int       `json:"id" db:"id"`
	EventID      int       `json:"event_id" db:"event_id"`
	Label        string    `json:"label" db:"label"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	TeamCount    int       `json:"team_count" db:"team_count"`
	CourtNumbers string    `json:"court_numbers" db:"court_numbers"`
	Finalized    bool      `json:"finalized" db:"finalized"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}
