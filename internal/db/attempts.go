package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/justestif/songquiz/internal/errs"
)

// AttemptRepository handles game attempt database operations.
type AttemptRepository struct {
	pool PgxPool
}

// FindOrCreate returns the incomplete attempt for (sessionID, userID),
// creating one if none exists. The insert races through a partial unique
// index on incomplete attempts, so two concurrent joins by the same user
// cannot produce two incomplete attempts.
func (r *AttemptRepository) FindOrCreate(ctx context.Context, sessionID, userID uuid.UUID) (*Attempt, error) {
	insertQuery := `
		INSERT INTO game_attempts (id, session_id, user_id, completed, total_time_ms, created_at)
		VALUES ($1, $2, $3, FALSE, 0, NOW())
		ON CONFLICT (session_id, user_id) WHERE NOT completed DO NOTHING
	`
	selectQuery := `
		SELECT id, session_id, user_id, completed, total_time_ms, created_at
		FROM game_attempts
		WHERE session_id = $1 AND user_id = $2 AND NOT completed
	`

	// A concurrent submission can complete the open attempt between the
	// conditional insert and the read-back, leaving no incomplete row to
	// select. Retrying the pair makes the next insert succeed.
	for try := 0; try < 3; try++ {
		if _, err := r.pool.Exec(ctx, insertQuery, uuid.New(), sessionID, userID); err != nil {
			return nil, fmt.Errorf("inserting attempt: %w", err)
		}

		var a Attempt
		err := r.pool.QueryRow(ctx, selectQuery, sessionID, userID).Scan(
			&a.ID,
			&a.SessionID,
			&a.UserID,
			&a.Completed,
			&a.TotalTimeMs,
			&a.CreatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("querying attempt: %w", err)
		}
		return &a, nil
	}
	return nil, fmt.Errorf("no open attempt for session %s user %s after retries", sessionID, userID)
}

// Get retrieves an attempt by ID.
func (r *AttemptRepository) Get(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	query := `
		SELECT id, session_id, user_id, completed, total_time_ms, created_at
		FROM game_attempts
		WHERE id = $1
	`
	var a Attempt
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.SessionID,
		&a.UserID,
		&a.Completed,
		&a.TotalTimeMs,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying attempt: %w", err)
	}
	return &a, nil
}

// SubmitResults atomically replaces the attempt's result set, records the
// total time and marks the attempt completed. The attempt row is locked for
// the duration of the transaction; a second submission after completion fails
// with errs.ErrAlreadyCompleted and leaves the first result set intact.
func (r *AttemptRepository) SubmitResults(ctx context.Context, attemptID uuid.UUID, totalTimeMs int64, results []AttemptResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var completed bool
	lockQuery := `SELECT completed FROM game_attempts WHERE id = $1 FOR UPDATE`
	err = tx.QueryRow(ctx, lockQuery, attemptID).Scan(&completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("locking attempt: %w", err)
	}
	if completed {
		return errs.ErrAlreadyCompleted
	}

	deleteQuery := `DELETE FROM attempt_results WHERE attempt_id = $1`
	if _, err := tx.Exec(ctx, deleteQuery, attemptID); err != nil {
		return fmt.Errorf("clearing previous results: %w", err)
	}

	if len(results) > 0 {
		insertQuery := `
			INSERT INTO attempt_results (attempt_id, track_id, guessed, time_taken_ms, skipped)
			SELECT $1, * FROM unnest($2::text[], $3::bool[], $4::bigint[], $5::bool[])
		`
		trackIDs := make([]string, len(results))
		guessed := make([]bool, len(results))
		timeTaken := make([]int64, len(results))
		skipped := make([]bool, len(results))
		for i, res := range results {
			trackIDs[i] = res.TrackID
			guessed[i] = res.Guessed
			timeTaken[i] = res.TimeTakenMs
			skipped[i] = res.Skipped
		}
		if _, err := tx.Exec(ctx, insertQuery, attemptID, trackIDs, guessed, timeTaken, skipped); err != nil {
			return fmt.Errorf("inserting results: %w", err)
		}
	}

	updateQuery := `UPDATE game_attempts SET completed = TRUE, total_time_ms = $2 WHERE id = $1`
	if _, err := tx.Exec(ctx, updateQuery, attemptID, totalTimeMs); err != nil {
		return fmt.Errorf("completing attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Results retrieves the recorded results of an attempt, ordered by track id.
func (r *AttemptRepository) Results(ctx context.Context, attemptID uuid.UUID) ([]AttemptResult, error) {
	query := `
		SELECT attempt_id, track_id, guessed, time_taken_ms, skipped
		FROM attempt_results
		WHERE attempt_id = $1
		ORDER BY track_id
	`
	rows, err := r.pool.Query(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("querying attempt results: %w", err)
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var res AttemptResult
		if err := rows.Scan(&res.AttemptID, &res.TrackID, &res.Guessed, &res.TimeTakenMs, &res.Skipped); err != nil {
			return nil, fmt.Errorf("scanning attempt result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
