package models

import "time"

type TeamStatus string

const (
	TeamStatusRegistered TeamStatus = "registered"
	TeamStatusCheckedIn  TeamStatus = "checked_in"
	TeamStatusWithdrawn  TeamStatus = "withdrawn"
)

type Team struct {
	ID            int        `json:"id" db:"id"`
	EventID       int        `json:"event_id" db:"event_id"`
	Name          string     `json:"name" db:"name"`
	TeamSize      int        `json:"team_size" db:"team_size"`
	Status        TeamStatus `json:"status" db:"status"`
	AverageRating *float64   `json:"average_rating,omitempty" db:"average_rating"`
	GroupID       *int       `json:"group_id,omitempty" db:"group_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`

	Members []User `json:"members,omitempty" db:"-"`
}
