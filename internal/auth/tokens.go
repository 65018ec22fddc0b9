package auth

import (
	"context"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/songquiz/internal/db"
	"github.com/justestif/songquiz/internal/errs"
	"github.com/justestif/songquiz/internal/spotify"
)

// TokenManager hands out authenticated Spotify clients backed by a user's
// stored credentials. Refresh happens here and nowhere else: the refreshed
// token is persisted before the client is returned, so every consumer sees
// the same current credential.
type TokenManager struct {
	auth  *spotifyauth.Authenticator
	users *db.UserRepository
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(auth *spotifyauth.Authenticator, users *db.UserRepository) *TokenManager {
	return &TokenManager{auth: auth, users: users}
}

// ClientFor returns a Spotify client holding a currently-valid access token
// for the user, refreshing and persisting credentials if necessary. Fails
// with errs.ErrUnauthenticated when no usable credential can be obtained; it
// never falls back to a stale token.
func (m *TokenManager) ClientFor(ctx context.Context, user *db.User) (*spotify.Client, error) {
	stored := &oauth2.Token{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		Expiry:       user.TokenExpiry,
		TokenType:    "Bearer",
	}
	if !stored.Valid() && stored.RefreshToken == "" {
		return nil, fmt.Errorf("no refreshable credential for user %s: %w", user.ID, errs.ErrUnauthenticated)
	}

	api := spotifyapi.New(m.auth.Client(ctx, stored))

	// Force the token source to produce a valid token now so a refresh
	// failure surfaces here rather than mid-request.
	fresh, err := api.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing credential for user %s: %w", user.ID, errs.ErrUnauthenticated)
	}

	if fresh.AccessToken != user.AccessToken {
		refreshToken := fresh.RefreshToken
		if refreshToken == "" {
			refreshToken = user.RefreshToken
		}
		if err := m.users.UpdateToken(ctx, user.ID, fresh.AccessToken, refreshToken, fresh.Expiry); err != nil {
			return nil, fmt.Errorf("persisting refreshed credential: %w", err)
		}
		user.AccessToken = fresh.AccessToken
		user.RefreshToken = refreshToken
		user.TokenExpiry = fresh.Expiry
	}

	return spotify.New(api), nil
}

// PlaylistTracks fetches the first page of playlist tracks on behalf of the
// user, ensuring a valid credential first. Satisfies game.Catalog.
func (m *TokenManager) PlaylistTracks(ctx context.Context, user *db.User, playlistID string) ([]spotify.PlaylistTrack, error) {
	client, err := m.ClientFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return client.PlaylistTracks(ctx, playlistID)
}

// CurrentUserPlaylists fetches the first page of the user's own playlists.
func (m *TokenManager) CurrentUserPlaylists(ctx context.Context, user *db.User) ([]spotify.Playlist, error) {
	client, err := m.ClientFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return client.CurrentUserPlaylists(ctx)
}

// AccessToken returns a currently-valid Spotify access token for the user,
// refreshing and persisting credentials if needed. The browser player uses
// this to talk to the playback SDK directly.
func (m *TokenManager) AccessToken(ctx context.Context, user *db.User) (string, error) {
	if _, err := m.ClientFor(ctx, user); err != nil {
		return "", err
	}
	return user.AccessToken, nil
}
