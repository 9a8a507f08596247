package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a Spotify user profile.
type User struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated web session.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Track represents a Spotify track.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Popularity int
	CreatedAt  time.Time
}

// TrackAttributes holds scraped audio attributes for a track. Attribute
// columns are nullable: a persisted row with nulls records a confirmed
// lookup miss so we don't re-scrape it on every run.
type TrackAttributes struct {
	TrackID   string
	Camelot   *string
	BPM       *float64
	Energy    *float64
	FetchedAt time.Time
}

// SortRun represents one computed ordering for a playlist.
type SortRun struct {
	ID           uuid.UUID
	UserID       string
	PlaylistID   string
	PlaylistName string
	TrackIDs     []string // final ordering
	AverageCost  float64
	Applied      bool
	CreatedAt    time.Time
}
