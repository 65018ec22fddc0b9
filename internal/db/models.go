package db

import (
	"time"

	"github.com/google/uuid"
)

// User is a player identified by their Spotify account. The stored OAuth
// credentials are used to call the Spotify API on the user's behalf.
type User struct {
	ID           uuid.UUID
	SpotifyID    string
	DisplayName  string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot is a game session: a frozen, ordered sample of playlist tracks.
// Once created it is never mutated; every attempt scores against it.
type Snapshot struct {
	ID          uuid.UUID
	PlaylistURL string
	IsPublic    bool
	OwnerID     uuid.UUID
	OwnerName   string // populated on Get, joined from users
	CreatedAt   time.Time
	Tracks      []SnapshotTrack // populated on Get, ordered by position
}

// SnapshotTrack is one frozen track within a snapshot. Positions are 0-based
// and contiguous within a snapshot.
type SnapshotTrack struct {
	SessionID  uuid.UUID
	Position   int
	TrackID    string
	Name       string
	Artists    string // comma-separated artist names
	URI        string
	Album      []byte // raw album metadata JSON
	DurationMs int
}

// Attempt is one player's play-through of a snapshot.
type Attempt struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	UserID      uuid.UUID
	Completed   bool
	TotalTimeMs int64
	CreatedAt   time.Time
}

// AttemptResult is one scored track within an attempt.
type AttemptResult struct {
	AttemptID   uuid.UUID
	TrackID     string
	Guessed     bool
	TimeTakenMs int64
	Skipped     bool
}
