package spotify

// PlaylistTrack is one playable track from a playlist page, flattened for
// freezing into a session snapshot.
type PlaylistTrack struct {
	ID         string
	Name       string
	Artists    string // Comma-separated artist names
	URI        string
	AlbumJSON  []byte // Album metadata as raw JSON
	DurationMs int
}

// Playlist is a summary of one of the user's playlists.
type Playlist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Tracks int    `json:"tracks"`
}
