package model

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Event struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Category     string    `db:"category" json:"category"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	LocationName string    `db:"location_name" json:"location_name"`
	Description  string    `db:"description,omitempty" json:"description,omitempty"`
	PosterPath   string    `db:"poster_path,omitempty" json:"poster_path,omitempty"`
	EventDate    time.Time `db:"event_date" json:"event_date"`
	IsPrivate    bool      `db:"is_private" json:"is_private"`
	UserID       int64     `db:"user_id" json:"user_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	// Author is the owner's username, filled by joined reads only.
	Author string `db:"-" json:"author,omitempty"`
}

// Candidate is a single geocoding match. The JSON layout doubles as the cache
// wire format, so the field names are fixed.
type Candidate struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// MediaJobMessage is the queue payload for one thumbnail job.
type MediaJobMessage struct {
	EventID    int64  `json:"event_id"`
	SourcePath string `json:"source_path"`
}
