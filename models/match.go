package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusWithdrawn MatchStatus = "withdrawn"
)

type Match struct {
	ID         int         `json:"id" db:"id"`
	GroupID    int         `json:"group_id" db:"group_id"`
	TeamAID    int         `json:"team_a_id" db:"team_a_id"`
	TeamBID    int         `json:"team_b_id" db:"team_b_id"`
	ScoreA     int         `json:"score_a" db:"score_a"`
	ScoreB     int         `json:"score_b" db:"score_b"`
	TeamAWin   bool        `json:"team_a_win" db:"team_a_win"`
	TeamBWin   bool        `json:"team_b_win" db:"team_b_win"`
	Verified   bool        `json:"verified" db:"verified"`
	MatchOrder int         `json:"match_order" db:"match_order"`
	Status     MatchStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`

	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`
}

// Scored reports whether any points have been entered. A 0-0 line is
// treated as unplayed and cannot be verified.
func (m *Match) Scored() bool {
	return m.ScoreA != 0 || m.ScoreB != 0
}
