package models

import "time"

// PlayerSportRating is keyed by (user, sport, format). Created on the
// first self-assessment submission and mutated after every verified
// match involving the player.
type PlayerSportRating struct {
	ID          int         `json:"id" db:"id"`
	UserID      int         `json:"user_id" db:"user_id"`
	SportID     int         `json:"sport_id" db:"sport_id"`
	Format      MatchFormat `json:"format" db:"format"`
	Rating      float64     `json:"rating" db:"rating"`
	Provisional bool        `json:"provisional" db:"provisional"`
	GamesPlayed int         `json:"games_played" db:"games_played"`
	Band        *string     `json:"band,omitempty" db:"band"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// RatingHistory is an append-only ledger of deltas tied to a match.
type RatingHistory struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	OldRating float64   `json:"old_rating" db:"old_rating"`
	NewRating float64   `json:"new_rating" db:"new_rating"`
	Delta     float64   `json:"delta" db:"delta"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AssessmentAnswer is one answered self-assessment question.
type AssessmentAnswer struct {
	QuestionID int `json:"question_id"`
	Value      int `json:"value"`
}
