package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const (
	// maxTracksPerPage is the Spotify API page limit for playlist items.
	// Only the first page is fetched; sessions sample from it.
	maxTracksPerPage = 100

	maxPlaylistsPerPage = 50
)

// PlaylistTracks fetches up to the first 100 tracks of a playlist. Removed
// and non-track entries (podcast episodes, local files) are filtered out.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(maxTracksPerPage))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s: %w", playlistID, err)
	}

	tracks := make([]PlaylistTrack, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track.Track == nil || item.Track.Track.ID == "" {
			continue
		}
		track, err := convertPlaylistTrack(*item.Track.Track)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// CurrentUserPlaylists fetches the first page of the user's playlists.
func (c *Client) CurrentUserPlaylists(ctx context.Context) ([]Playlist, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(maxPlaylistsPerPage))
	if err != nil {
		return nil, fmt.Errorf("fetching user playlists: %w", err)
	}

	playlists := make([]Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		playlists = append(playlists, Playlist{
			ID:     p.ID.String(),
			Name:   p.Name,
			URL:    p.ExternalURLs["spotify"],
			Tracks: int(p.Tracks.Total),
		})
	}
	return playlists, nil
}

// convertPlaylistTrack flattens a Spotify FullTrack into a PlaylistTrack,
// joining artist names and freezing the album metadata as JSON.
func convertPlaylistTrack(t spotify.FullTrack) (PlaylistTrack, error) {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	album, err := json.Marshal(t.Album)
	if err != nil {
		return PlaylistTrack{}, fmt.Errorf("encoding album metadata: %w", err)
	}

	return PlaylistTrack{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artists:    strings.Join(artists, ", "),
		URI:        string(t.URI),
		AlbumJSON:  album,
		DurationMs: int(t.Duration),
	}, nil
}
