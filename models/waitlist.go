package models

import "time"

type WaitListStatus string

const (
	WaitListStatusWaiting  WaitListStatus = "waiting"
	WaitListStatusPromoted WaitListStatus = "promoted"
	WaitListStatusCanceled WaitListStatus = "canceled"
	WaitListStatusExpired  WaitListStatus = "expired"
)

type WaitListEntry struct {
	ID        int            `json:"id" db:"id"`
	EventID   int            `json:"event_id" db:"event_id"`
	UserID    int            `json:"user_id" db:"user_id"`
	Position  int            `json:"position" db:"position"`
	Status    WaitListStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
