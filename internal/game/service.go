// Package game implements the quiz session lifecycle: creating frozen track
// snapshots from playlists, joining sessions and recording attempt results.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/songquiz/internal/db"
	"github.com/justestif/songquiz/internal/errs"
	"github.com/justestif/songquiz/internal/sampler"
	"github.com/justestif/songquiz/internal/spotify"
)

// DefaultTrackCount is the number of tracks sampled when the request does not
// specify one.
const DefaultTrackCount = 5

// SnapshotStore persists and retrieves immutable session snapshots.
type SnapshotStore interface {
	Create(ctx context.Context, snap *db.Snapshot, tracks []db.SnapshotTrack) error
	Get(ctx context.Context, id uuid.UUID) (*db.Snapshot, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	TrackIDs(ctx context.Context, sessionID uuid.UUID) ([]string, error)
}

// AttemptStore persists per-user, per-session game attempts.
type AttemptStore interface {
	FindOrCreate(ctx context.Context, sessionID, userID uuid.UUID) (*db.Attempt, error)
	Get(ctx context.Context, id uuid.UUID) (*db.Attempt, error)
	SubmitResults(ctx context.Context, attemptID uuid.UUID, totalTimeMs int64, results []db.AttemptResult) error
	Results(ctx context.Context, attemptID uuid.UUID) ([]db.AttemptResult, error)
}

// Catalog lists playlist tracks on behalf of a user, obtaining a valid
// credential first. Implemented by auth.TokenManager.
type Catalog interface {
	PlaylistTracks(ctx context.Context, user *db.User, playlistID string) ([]spotify.PlaylistTrack, error)
}

// Options configures a Service.
type Options struct {
	// ShareBaseURL is the frontend base used to build shareable session links.
	ShareBaseURL string

	// Rand is the random source used for track sampling. Defaults to a
	// time-seeded source; tests inject a seeded one.
	Rand *rand.Rand
}

// Service composes the track sampler, the catalog and the stores to realize
// the session and attempt use cases.
type Service struct {
	snapshots SnapshotStore
	attempts  AttemptStore
	catalog   Catalog

	shareBaseURL string

	randMu sync.Mutex
	rand   *rand.Rand
}

// New creates a game service.
func New(snapshots SnapshotStore, attempts AttemptStore, catalog Catalog, opts Options) *Service {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		snapshots:    snapshots,
		attempts:     attempts,
		catalog:      catalog,
		shareBaseURL: opts.ShareBaseURL,
		rand:         rng,
	}
}

// CreatedSession is the outcome of CreateSession.
type CreatedSession struct {
	Snapshot *db.Snapshot
	ShareURL string
}

// CreateSession resolves the playlist reference, samples count tracks from
// its first page and freezes them as a new immutable session owned by user.
// All catalog work happens before the single atomic persist; a failure at any
// step leaves no partial session behind.
func (s *Service) CreateSession(ctx context.Context, user *db.User, playlistRef, visibility string, count int) (*CreatedSession, error) {
	if count < 1 {
		return nil, fmt.Errorf("track count must be positive: %w", errs.ErrValidation)
	}

	isPublic, err := parseVisibility(visibility)
	if err != nil {
		return nil, err
	}

	playlistID, err := spotify.ParsePlaylistID(playlistRef)
	if err != nil {
		return nil, err
	}

	tracks, err := s.catalog.PlaylistTracks(ctx, user, playlistID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("playlist has no playable tracks: %w", errs.ErrValidation)
	}

	s.randMu.Lock()
	selected := sampler.Select(s.rand, tracks, count)
	s.randMu.Unlock()

	snap := &db.Snapshot{
		ID:          uuid.New(),
		PlaylistURL: playlistRef,
		IsPublic:    isPublic,
		OwnerID:     user.ID,
	}
	frozen := make([]db.SnapshotTrack, len(selected))
	for i, t := range selected {
		frozen[i] = db.SnapshotTrack{
			SessionID:  snap.ID,
			Position:   i,
			TrackID:    t.ID,
			Name:       t.Name,
			Artists:    t.Artists,
			URI:        t.URI,
			Album:      t.AlbumJSON,
			DurationMs: t.DurationMs,
		}
	}

	if err := s.snapshots.Create(ctx, snap, frozen); err != nil {
		return nil, err
	}

	return &CreatedSession{
		Snapshot: snap,
		ShareURL: fmt.Sprintf("%s/session/%s", s.shareBaseURL, snap.ID),
	}, nil
}

// GetSession returns a snapshot with its frozen tracks in position order.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*db.Snapshot, error) {
	return s.snapshots.Get(ctx, id)
}

// JoinSession finds or creates the caller's incomplete attempt for a session.
// Joining twice before completion returns the same attempt.
func (s *Service) JoinSession(ctx context.Context, sessionID, userID uuid.UUID) (*db.Attempt, error) {
	exists, err := s.snapshots.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("session %s: %w", sessionID, errs.ErrNotFound)
	}
	return s.attempts.FindOrCreate(ctx, sessionID, userID)
}

// ResultInput is one guessed track in a submission.
type ResultInput struct {
	TrackID     string
	Guessed     bool
	TimeTakenMs int64
	Skipped     bool
}

// SubmitResults validates a submission against the attempt's frozen snapshot
// and atomically replaces the attempt's result set, marking it completed.
// Every result must reference a track frozen in the snapshot; validation
// failures leave the attempt untouched.
func (s *Service) SubmitResults(ctx context.Context, attemptID, callerID uuid.UUID, totalTimeMs int64, results []ResultInput) error {
	if totalTimeMs < 0 {
		return fmt.Errorf("total time must be non-negative: %w", errs.ErrValidation)
	}

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt.UserID != callerID {
		return fmt.Errorf("attempt %s is not owned by caller: %w", attemptID, errs.ErrForbidden)
	}
	if attempt.Completed {
		return errs.ErrAlreadyCompleted
	}

	trackIDs, err := s.snapshots.TrackIDs(ctx, attempt.SessionID)
	if err != nil {
		return err
	}
	frozen := make(map[string]bool, len(trackIDs))
	for _, id := range trackIDs {
		frozen[id] = true
	}

	rows := make([]db.AttemptResult, len(results))
	seen := make(map[string]bool, len(results))
	for i, res := range results {
		if res.TimeTakenMs < 0 {
			return fmt.Errorf("time taken must be non-negative: %w", errs.ErrValidation)
		}
		if !frozen[res.TrackID] {
			return fmt.Errorf("track %s is not part of the session snapshot: %w", res.TrackID, errs.ErrValidation)
		}
		if seen[res.TrackID] {
			return fmt.Errorf("duplicate result for track %s: %w", res.TrackID, errs.ErrValidation)
		}
		seen[res.TrackID] = true
		rows[i] = db.AttemptResult{
			AttemptID:   attemptID,
			TrackID:     res.TrackID,
			Guessed:     res.Guessed,
			TimeTakenMs: res.TimeTakenMs,
			Skipped:     res.Skipped,
		}
	}

	return s.attempts.SubmitResults(ctx, attemptID, totalTimeMs, rows)
}

// AttemptResults returns an attempt and its recorded per-track results.
// Only the attempt's owner may read them.
func (s *Service) AttemptResults(ctx context.Context, attemptID, callerID uuid.UUID) (*db.Attempt, []db.AttemptResult, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.UserID != callerID {
		return nil, nil, fmt.Errorf("attempt %s is not owned by caller: %w", attemptID, errs.ErrForbidden)
	}

	results, err := s.attempts.Results(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, results, nil
}

// parseVisibility maps the API visibility value to the stored public flag.
// Empty defaults to public.
func parseVisibility(v string) (bool, error) {
	switch v {
	case "", "public":
		return true, nil
	case "private":
		return false, nil
	default:
		return false, fmt.Errorf("visibility must be public or private: %w", errs.ErrValidation)
	}
}
