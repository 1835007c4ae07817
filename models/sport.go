package models

type Sport struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
