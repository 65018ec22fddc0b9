package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/justestif/songquiz/internal/errs"
)

// SnapshotRepository handles game session snapshot database operations.
type SnapshotRepository struct {
	pool PgxPool
}

// Create persists a snapshot and its ordered tracks in a single transaction:
// either the whole positioned track list becomes visible or nothing does.
// Track positions must be 0..n-1 contiguous and unique; violating writes are
// rejected with errs.ErrValidation before touching storage.
func (r *SnapshotRepository) Create(ctx context.Context, snap *Snapshot, tracks []SnapshotTrack) error {
	if err := checkPositions(tracks); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}

	sessionQuery := `
		INSERT INTO game_sessions (id, playlist_url, is_public, owner_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, sessionQuery,
		snap.ID,
		snap.PlaylistURL,
		snap.IsPublic,
		snap.OwnerID,
	).Scan(&snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if len(tracks) > 0 {
		rows := make([][]any, len(tracks))
		for i, t := range tracks {
			rows[i] = []any{snap.ID, t.Position, t.TrackID, t.Name, t.Artists, t.URI, t.Album, t.DurationMs}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"session_tracks"},
			[]string{"session_id", "position", "track_id", "name", "artists", "uri", "album", "duration_ms"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting session tracks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	snap.Tracks = tracks
	return nil
}

// Get retrieves a snapshot with its tracks ordered by position and a minimal
// owner projection (display name only; credentials are never read here).
func (r *SnapshotRepository) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	sessionQuery := `
		SELECT s.id, s.playlist_url, s.is_public, s.owner_id, u.display_name, s.created_at
		FROM game_sessions s
		JOIN users u ON u.id = s.owner_id
		WHERE s.id = $1
	`
	var snap Snapshot
	err := r.pool.QueryRow(ctx, sessionQuery, id).Scan(
		&snap.ID,
		&snap.PlaylistURL,
		&snap.IsPublic,
		&snap.OwnerID,
		&snap.OwnerName,
		&snap.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	tracksQuery := `
		SELECT session_id, position, track_id, name, artists, uri, album, duration_ms
		FROM session_tracks
		WHERE session_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, tracksQuery, id)
	if err != nil {
		return nil, fmt.Errorf("querying session tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t SnapshotTrack
		if err := rows.Scan(
			&t.SessionID,
			&t.Position,
			&t.TrackID,
			&t.Name,
			&t.Artists,
			&t.URI,
			&t.Album,
			&t.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scanning session track: %w", err)
		}
		snap.Tracks = append(snap.Tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Exists reports whether a session with the given id exists.
func (r *SnapshotRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM game_sessions WHERE id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking session existence: %w", err)
	}
	return exists, nil
}

// TrackIDs returns the frozen track ids of a session, ordered by position.
func (r *SnapshotRepository) TrackIDs(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	query := `
		SELECT track_id
		FROM session_tracks
		WHERE session_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session track ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning track id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// checkPositions verifies tracks are positioned 0..n-1 with no gaps or
// duplicates.
func checkPositions(tracks []SnapshotTrack) error {
	seen := make([]bool, len(tracks))
	for _, t := range tracks {
		if t.Position < 0 || t.Position >= len(tracks) || seen[t.Position] {
			return fmt.Errorf("track positions must be contiguous and unique: %w", errs.ErrValidation)
		}
		seen[t.Position] = true
	}
	return nil
}
