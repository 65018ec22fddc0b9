package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"

	"github.com/justestif/songquiz/internal/auth"
	"github.com/justestif/songquiz/internal/db"
	"github.com/justestif/songquiz/internal/errs"
	"github.com/justestif/songquiz/internal/game"
	"github.com/justestif/songquiz/internal/spotify"
)

// GameService is the session and attempt lifecycle the API exposes.
// Implemented by game.Service.
type GameService interface {
	CreateSession(ctx context.Context, user *db.User, playlistRef, visibility string, count int) (*game.CreatedSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*db.Snapshot, error)
	JoinSession(ctx context.Context, sessionID, userID uuid.UUID) (*db.Attempt, error)
	SubmitResults(ctx context.Context, attemptID, callerID uuid.UUID, totalTimeMs int64, results []game.ResultInput) error
	AttemptResults(ctx context.Context, attemptID, callerID uuid.UUID) (*db.Attempt, []db.AttemptResult, error)
}

// UserStore is the slice of the user repository the handlers need.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*db.User, error)
	Upsert(ctx context.Context, u *db.User) error
}

// SpotifyGateway serves the profile endpoints with a valid user credential.
// Implemented by auth.TokenManager.
type SpotifyGateway interface {
	CurrentUserPlaylists(ctx context.Context, user *db.User) ([]spotify.Playlist, error)
	AccessToken(ctx context.Context, user *db.User) (string, error)
}

// Handlers contains the HTTP handlers for the quiz API.
type Handlers struct {
	auth    *spotifyauth.Authenticator
	users   UserStore
	issuer  *auth.TokenIssuer
	gateway SpotifyGateway
	game    GameService

	frontendURL string
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(a *spotifyauth.Authenticator, users UserStore, issuer *auth.TokenIssuer, gateway SpotifyGateway, svc GameService, frontendURL string, logger *zap.Logger) *Handlers {
	return &Handlers{
		auth:        a,
		users:       users,
		issuer:      issuer,
		gateway:     gateway,
		game:        svc,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

type ctxKey int

const userKey ctxKey = 0

// userFrom returns the authenticated user placed in the context by
// RequireUser.
func userFrom(r *http.Request) *db.User {
	u, _ := r.Context().Value(userKey).(*db.User)
	return u
}

// RequireUser authenticates the request with a bearer token from the
// Authorization header or a token query parameter and loads the user into
// the request context.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, fmt.Errorf("missing bearer token: %w", errs.ErrUnauthenticated))
			return
		}

		userID, err := h.issuer.Verify(token)
		if err != nil {
			respondError(w, err)
			return
		}

		user, err := h.users.Get(r.Context(), userID)
		if err != nil {
			// The token outlived its user.
			respondError(w, fmt.Errorf("unknown user: %w", errs.ErrUnauthenticated))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateOAuthState()
	if err != nil {
		respondError(w, err)
		return
	}

	// State round-trips through a cookie for CSRF validation on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /auth/callback).
// It exchanges the code, upserts the user with fresh credentials and sends
// the browser back to the frontend with an issued API token.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		respondError(w, fmt.Errorf("missing state cookie: %w", errs.ErrUnauthenticated))
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		respondError(w, fmt.Errorf("state mismatch: %w", errs.ErrUnauthenticated))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		respondError(w, fmt.Errorf("authorization denied: %s: %w", errMsg, errs.ErrUnauthenticated))
		return
	}

	token, err := h.auth.Token(r.Context(), stateCookie.Value, r)
	if err != nil {
		respondError(w, fmt.Errorf("exchanging code: %w", errs.ErrUnauthenticated))
		return
	}

	client := spotify.New(spotifyapi.New(h.auth.Client(r.Context(), token)))
	profile, err := client.CurrentUser(r.Context())
	if err != nil {
		h.logger.Error("fetching profile after login", zap.Error(err))
		respondError(w, err)
		return
	}

	user := &db.User{
		SpotifyID:    profile.ID,
		DisplayName:  profile.DisplayName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
	}
	if err := h.users.Upsert(r.Context(), user); err != nil {
		h.logger.Error("upserting user after login", zap.Error(err))
		respondError(w, err)
		return
	}

	apiToken, err := h.issuer.Issue(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/?token=%s", h.frontendURL, url.QueryEscape(apiToken)), http.StatusTemporaryRedirect)
}

type createSessionRequest struct {
	PlaylistRef string `json:"playlistRef"`
	Visibility  string `json:"visibility"`
	Count       *int   `json:"count"`
}

type trackResponse struct {
	Position   int             `json:"position"`
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    string          `json:"artists"`
	URI        string          `json:"uri"`
	Album      json.RawMessage `json:"album"`
	DurationMs int             `json:"durationMs"`
}

func trackResponses(tracks []db.SnapshotTrack) []trackResponse {
	out := make([]trackResponse, len(tracks))
	for i, t := range tracks {
		out[i] = trackResponse{
			Position:   t.Position,
			ID:         t.TrackID,
			Name:       t.Name,
			Artists:    t.Artists,
			URI:        t.URI,
			Album:      json.RawMessage(t.Album),
			DurationMs: t.DurationMs,
		}
	}
	return out
}

// CreateSession creates a frozen quiz session from a playlist
// (POST /api/session).
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("decoding request body: %w", errs.ErrValidation))
		return
	}

	count := game.DefaultTrackCount
	if req.Count != nil {
		count = *req.Count
	}

	created, err := h.game.CreateSession(r.Context(), userFrom(r), req.PlaylistRef, req.Visibility, count)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"sessionId": created.Snapshot.ID,
		"shareUrl":  created.ShareURL,
		"tracks":    trackResponses(created.Snapshot.Tracks),
	})
}

// GetSession returns a session with its frozen tracks (GET /api/session/{id}).
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, fmt.Errorf("invalid session id: %w", errs.ErrNotFound))
		return
	}

	snap, err := h.game.GetSession(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	visibility := "private"
	if snap.IsPublic {
		visibility = "public"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":          snap.ID,
		"playlistRef": snap.PlaylistURL,
		"visibility":  visibility,
		"owner": map[string]any{
			"id":          snap.OwnerID,
			"displayName": snap.OwnerName,
		},
		"createdAt": snap.CreatedAt,
		"tracks":    trackResponses(snap.Tracks),
	})
}

// JoinSession finds or creates the caller's attempt for a session
// (POST /api/session/{id}/join).
func (h *Handlers) JoinSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, fmt.Errorf("invalid session id: %w", errs.ErrNotFound))
		return
	}

	attempt, err := h.game.JoinSession(r.Context(), id, userFrom(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"attemptId": attempt.ID,
		"sessionId": attempt.SessionID,
	})
}

type submitResultsRequest struct {
	TotalTimeMs int64 `json:"totalTimeMs"`
	Results     []struct {
		TrackID     string `json:"trackId"`
		Guessed     bool   `json:"guessed"`
		TimeTakenMs int64  `json:"timeTakenMs"`
		Skipped     bool   `json:"skipped"`
	} `json:"results"`
}

// SubmitResults completes the caller's attempt with its per-track results
// (POST /api/attempt/{id}/results).
func (h *Handlers) SubmitResults(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, fmt.Errorf("invalid attempt id: %w", errs.ErrNotFound))
		return
	}

	var req submitResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("decoding request body: %w", errs.ErrValidation))
		return
	}

	results := make([]game.ResultInput, len(req.Results))
	for i, res := range req.Results {
		results[i] = game.ResultInput{
			TrackID:     res.TrackID,
			Guessed:     res.Guessed,
			TimeTakenMs: res.TimeTakenMs,
			Skipped:     res.Skipped,
		}
	}

	if err := h.game.SubmitResults(r.Context(), id, userFrom(r).ID, req.TotalTimeMs, results); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"attemptId": id,
	})
}

// GetAttempt returns the caller's attempt with its recorded results
// (GET /api/attempt/{id}).
func (h *Handlers) GetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, fmt.Errorf("invalid attempt id: %w", errs.ErrNotFound))
		return
	}

	attempt, results, err := h.game.AttemptResults(r.Context(), id, userFrom(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	resultBodies := make([]map[string]any, len(results))
	for i, res := range results {
		resultBodies[i] = map[string]any{
			"trackId":     res.TrackID,
			"guessed":     res.Guessed,
			"timeTakenMs": res.TimeTakenMs,
			"skipped":     res.Skipped,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"attemptId":   attempt.ID,
		"sessionId":   attempt.SessionID,
		"completed":   attempt.Completed,
		"totalTimeMs": attempt.TotalTimeMs,
		"results":     resultBodies,
	})
}

// MePlaylists lists the caller's playlists (GET /api/me/playlists).
func (h *Handlers) MePlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.gateway.CurrentUserPlaylists(r.Context(), userFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// MeToken hands the caller a currently-valid Spotify access token for the
// in-browser player (GET /api/me/token).
func (h *Handlers) MeToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.gateway.AccessToken(r.Context(), userFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"token": token})
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
