package models

type Court struct {
	ID     int    `json:"id" db:"id"`
	ClubID int    `json:"club_id" db:"club_id"`
	Label  string `json:"label" db:"label"`
	Indoor bool   `json:"indoor" db:"indoor"`
}
