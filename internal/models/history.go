package models

import "time"

// HistoryRecord is one stored diagnosis entry served by the history backend.
type HistoryRecord struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Title     string    `json:"title" db:"title"`
	Diagnosis string    `json:"diagnosis" db:"diagnosis"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
