package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaprio/auth-service/internal/models"
	"github.com/gaprio/auth-service/internal/storage"
)

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	user, err := s.CreateUser(ctx, "a@b.com", "hash", "Ada B")
	require.NoError(t, err)
	require.False(t, user.EmailVerified)

	_, err = s.CreateUser(ctx, "a@b.com", "other", "Eve M")
	require.ErrorIs(t, err, storage.ErrDuplicateEmail)

	require.NoError(t, s.MarkEmailVerified(ctx, user.ID))
	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, got.EmailVerified)

	_, err = s.GetUserByEmail(ctx, "nobody@b.com")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	user, err := s.CreateUser(ctx, "a@b.com", "hash", "Ada B")
	require.NoError(t, err)

	_, err = s.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:       user.ID,
		Selector:     "sel1",
		VerifierHash: "vh1",
		ExpiresAt:    time.Now().Add(time.Hour),
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	token, err := s.GetRefreshTokenBySelector(ctx, "sel1")
	require.NoError(t, err)
	require.Equal(t, user.ID, token.UserID)

	require.NoError(t, s.DeleteUserRefreshTokens(ctx, user.ID))
	_, err = s.GetRefreshTokenBySelector(ctx, "sel1")
	require.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
}

func TestConnectionUniquePerUserAndProvider(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	user, err := s.CreateUser(ctx, "a@b.com", "hash", "Ada B")
	require.NoError(t, err)

	first, err := s.UpsertConnection(ctx, models.Connection{
		UserID:         user.ID,
		Provider:       "github",
		ProviderUserID: "octo-1",
		AccessToken:    "ga1",
		RefreshToken:   "gr1",
		ExpiresAt:      time.Now().Add(time.Hour),
		Metadata:       json.RawMessage(`{"scope":"repo"}`),
	})
	require.NoError(t, err)

	// Same (user, provider) replaces rather than duplicates.
	second, err := s.UpsertConnection(ctx, models.Connection{
		UserID:         user.ID,
		Provider:       "github",
		ProviderUserID: "octo-1",
		AccessToken:    "ga2",
		RefreshToken:   "gr2",
		ExpiresAt:      time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	conns, err := s.ListUserConnections(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	require.Equal(t, "ga2", conns[0].AccessToken)

	// A different provider is a separate row.
	_, err = s.UpsertConnection(ctx, models.Connection{
		UserID:   user.ID,
		Provider: "slack",
	})
	require.NoError(t, err)
	conns, err = s.ListUserConnections(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, conns, 2)

	require.NoError(t, s.DeleteConnection(ctx, user.ID, "github"))
	_, err = s.GetConnection(ctx, user.ID, "github")
	require.ErrorIs(t, err, storage.ErrConnectionNotFound)
}
