// Package auth handles Spotify OAuth credentials and API session tokens.
package auth

import (
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

// NewAuthenticator builds the Spotify OAuth2 authenticator used for the
// authorization-code flow. Scopes cover profile, playlist reads and playback
// control for the in-browser player.
func NewAuthenticator(clientID, clientSecret, redirectURI string) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeStreaming,
			spotifyauth.ScopeUserReadEmail,
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistReadCollaborative,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadPlaybackState,
		),
	)
}
