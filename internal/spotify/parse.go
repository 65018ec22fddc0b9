package spotify

import (
	"strings"

	"github.com/justestif/songquiz/internal/errs"
)

// ParsePlaylistID extracts a playlist id from a shared reference. Accepted
// forms:
//
//	https://open.spotify.com/playlist/{id}[?query]
//	spotify:playlist:{id}
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if _, after, found := strings.Cut(ref, "playlist/"); found {
		id, _, _ := strings.Cut(after, "?")
		if id != "" {
			return id, nil
		}
		return "", errs.ErrInvalidReference
	}

	if id, found := strings.CutPrefix(ref, "spotify:playlist:"); found && id != "" {
		return id, nil
	}

	return "", errs.ErrInvalidReference
}
