package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	conn, err := New().Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	id, err := conn.CreateUser(ctx, &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	_, err = conn.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	u, err := conn.User(ctx, models.UserIdentifier{Email: "alice@example.com", Username: "nobody"})
	require.NoError(t, err)
	require.Equal(t, id, u.ID)

	u, err = conn.User(ctx, models.UserIdentifier{UserID: id})
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)

	_, err = conn.User(ctx, models.UserIdentifier{Username: "bob"})
	require.ErrorIs(t, err, storage.ErrNotFound)

	nameTaken, emailTaken, err := conn.UsernameOrEmailTaken(ctx, "bob", "alice@example.com")
	require.NoError(t, err)
	require.False(t, nameTaken)
	require.True(t, emailTaken)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	st := New()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })

	conn, err := st.Acquire(ctx)
	require.NoError(t, err)

	require.NoError(t, conn.AddRefreshToken(ctx, 1, "a", now.Add(time.Hour)))
	require.NoError(t, conn.AddRefreshToken(ctx, 1, "b", now.Add(2*time.Hour)))
	require.NoError(t, conn.AddRefreshToken(ctx, 2, "c", now.Add(2*time.Hour)))

	active, err := conn.ActiveRefreshTokens(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "b", active[0].TokenHash, "newest first")

	now = now.Add(90 * time.Minute)
	active, err = conn.ActiveRefreshTokens(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 1)

	n, err := conn.RevokeRefreshTokens(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = conn.RevokeRefreshTokens(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, n)

	active, err = conn.ActiveRefreshTokens(ctx, 2)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Len(t, st.Tokens(), 3)
}

func TestDeleteUser_DropsSessions(t *testing.T) {
	ctx := context.Background()
	st := New()
	conn, _ := st.Acquire(ctx)

	id, err := conn.CreateUser(ctx, &models.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NoError(t, conn.AddRefreshToken(ctx, id, "a", time.Now().Add(time.Hour)))

	require.NoError(t, conn.DeleteUser(ctx, id))
	require.Empty(t, st.Tokens())
	require.ErrorIs(t, conn.DeleteUser(ctx, id), storage.ErrNotFound)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
