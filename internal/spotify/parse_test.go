package spotify

import (
	"errors"
	"testing"

	"github.com/justestif/songquiz/internal/errs"
)

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr bool
	}{
		{
			name:   "web URL",
			ref:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			wantID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:   "web URL with query string",
			ref:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			wantID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:   "URI form",
			ref:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			wantID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:   "surrounding whitespace",
			ref:    "  https://open.spotify.com/playlist/ABC123  ",
			wantID: "ABC123",
		},
		{
			name:    "track URL rejected",
			ref:     "https://open.spotify.com/track/abc",
			wantErr: true,
		},
		{
			name:    "bare id rejected",
			ref:     "37i9dQZF1DXcBWIGoYBM5M",
			wantErr: true,
		},
		{
			name:    "empty id after segment",
			ref:     "https://open.spotify.com/playlist/",
			wantErr: true,
		},
		{
			name:    "empty URI id",
			ref:     "spotify:playlist:",
			wantErr: true,
		},
		{
			name:    "empty string",
			ref:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.ref)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrInvalidReference) {
					t.Errorf("ParsePlaylistID(%q) error = %v, want ErrInvalidReference", tt.ref, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlaylistID(%q) error = %v", tt.ref, err)
			}
			if got != tt.wantID {
				t.Errorf("ParsePlaylistID(%q) = %q, want %q", tt.ref, got, tt.wantID)
			}
		})
	}
}
