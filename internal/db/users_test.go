package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/justestif/songquiz/internal/errs"
)

func TestUserRepository_Upsert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := db.Users()
	ctx := context.Background()

	u := &User{
		SpotifyID:    "spotify-user-1",
		DisplayName:  "Player One",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  time.Now().Add(time.Hour),
	}

	existingID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users .+ ON CONFLICT \(spotify_id\) DO UPDATE SET`).
		WithArgs(pgxmock.AnyArg(), u.SpotifyID, u.DisplayName, u.AccessToken, u.RefreshToken, u.TokenExpiry).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(existingID, now, now))

	require.NoError(t, r.Upsert(ctx, u))
	// Conflicting insert resolves to the existing row id.
	require.Equal(t, existingID, u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := db.Users()
	ctx := context.Background()
	id := uuid.New()

	cols := []string{"id", "spotify_id", "display_name", "access_token", "refresh_token", "token_expiry", "created_at", "updated_at"}
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(id, "spotify-user-1", "Player One", "access", "refresh", now.Add(time.Hour), now, now))
	u, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "spotify-user-1", u.SpotifyID)
	require.Equal(t, "Player One", u.DisplayName)

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateToken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := db.Users()
	ctx := context.Background()
	id := uuid.New()
	expiry := time.Now().Add(time.Hour)

	mock.ExpectExec(`UPDATE users\s+SET access_token = \$2, refresh_token = \$3, token_expiry = \$4`).
		WithArgs(id, "new-access", "new-refresh", expiry).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdateToken(ctx, id, "new-access", "new-refresh", expiry))

	mock.ExpectExec(`UPDATE users\s+SET access_token = \$2, refresh_token = \$3, token_expiry = \$4`).
		WithArgs(id, "new-access", "new-refresh", expiry).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.UpdateToken(ctx, id, "new-access", "new-refresh", expiry), errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
