package models

import "time"

// WeeklyNote is free-text feedback keyed by driver name and date.
type WeeklyNote struct {
	ID         int64     `json:"id"`
	DriverKey  string    `json:"driver_key"`
	DriverName string    `json:"driver_name"`
	Date       string    `json:"date"`
	Body       string    `json:"body"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	NoteUpserted = "upserted"
	NoteDeleted  = "deleted"
)

// NoteEvent is published to realtime subscribers.
type NoteEvent struct {
	Type string     `json:"type"`
	Note WeeklyNote `json:"note"`
}
