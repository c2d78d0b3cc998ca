package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaprio/auth-service/internal/storage"
	"github.com/gaprio/auth-service/internal/storage/memory"
	"github.com/gaprio/auth-service/internal/util"
)

type authFixture struct {
	auth    *AuthService
	tokens  *TokenService
	storage *memory.Storage
	codes   *memory.CodeStorage
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := memory.NewStorage()
	codes := memory.NewCodeStorage()
	tokens := newTestTokenService(15 * time.Minute)
	log := zap.NewNop().Sugar()

	auth := NewAuthService(
		tokens,
		store,
		codes,
		NewMailerService(log, ""),
		&util.VerificationConfig{CodeTTL: 10 * time.Minute, CodeLength: 6},
		log,
	)

	return &authFixture{auth: auth, tokens: tokens, storage: store, codes: codes}
}

// registerAndVerify walks a user through the full signup flow.
func (f *authFixture) registerAndVerify(t *testing.T, ctx context.Context, email string) {
	t.Helper()

	require.NoError(t, f.auth.Register(ctx, "Ada B", email, "secret123"))
	code, err := f.codes.GetCode(ctx, email)
	require.NoError(t, err)

	pair, err := f.auth.VerifyEmail(ctx, email, code)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestRegisterStoresHashedPasswordAndCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.auth.Register(ctx, "Ada B", "a@b.com", "secret123"))

	user, err := f.storage.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", user.PasswordHash)
	require.False(t, user.EmailVerified)

	code, err := f.codes.GetCode(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, code, 6)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.auth.Register(ctx, "Ada B", "a@b.com", "secret123"))
	err := f.auth.Register(ctx, "Eve M", "a@b.com", "hunter2aa")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyEmailIssuesTokenPair(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.registerAndVerify(t, ctx, "a@b.com")

	user, err := f.storage.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.True(t, user.EmailVerified)

	// Code is single-use.
	_, err = f.codes.GetCode(ctx, "a@b.com")
	require.Error(t, err)
}

func TestVerifyEmailWrongCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.auth.Register(ctx, "Ada B", "a@b.com", "secret123"))
	require.NoError(t, f.codes.SaveCode(ctx, "a@b.com", "123456", time.Minute))

	_, err := f.auth.VerifyEmail(ctx, "a@b.com", "654321")
	require.ErrorIs(t, err, ErrCodeInvalid)

	_, err = f.auth.VerifyEmail(ctx, "nobody@b.com", "123456")
	require.ErrorIs(t, err, ErrCodeInvalid)
}

func TestLoginFlows(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.auth.Login(ctx, "a@b.com", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.auth.Register(ctx, "Ada B", "a@b.com", "secret123"))

	_, err = f.auth.Login(ctx, "a@b.com", "secret123")
	require.ErrorIs(t, err, ErrUnverifiedAccount)

	code, err := f.codes.GetCode(ctx, "a@b.com")
	require.NoError(t, err)
	_, err = f.auth.VerifyEmail(ctx, "a@b.com", code)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "a@b.com", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	pair, err := f.auth.Login(ctx, "a@b.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestResendCodeOnlyForUnverified(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	// Unknown address acks without creating anything.
	require.NoError(t, f.auth.ResendCode(ctx, "nobody@b.com"))
	_, err := f.codes.GetCode(ctx, "nobody@b.com")
	require.Error(t, err)

	require.NoError(t, f.auth.Register(ctx, "Ada B", "a@b.com", "secret123"))

	require.NoError(t, f.auth.ResendCode(ctx, "a@b.com"))
	code, err := f.codes.GetCode(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	// Verified accounts ack without a new code.
	_, err = f.auth.VerifyEmail(ctx, "a@b.com", code)
	require.NoError(t, err)
	require.NoError(t, f.auth.ResendCode(ctx, "a@b.com"))
	_, err = f.codes.GetCode(ctx, "a@b.com")
	require.ErrorIs(t, err, storage.ErrCodeNotFound)
}

func TestRefreshIssuesNewAccessTokenAndKeepsRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.registerAndVerify(t, ctx, "a@b.com")

	pair, err := f.auth.Login(ctx, "a@b.com", "secret123")
	require.NoError(t, err)

	access, err := f.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	userID, err := f.tokens.ValidateAccessTokenAndGetUserID(ctx, access)
	require.NoError(t, err)
	user, err := f.storage.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// The same refresh token keeps working until it expires.
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsUnknownAndMalformedTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.auth.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)

	_, err = f.auth.Refresh(ctx, "unknown.selector")
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefreshRejectsWrongVerifier(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.registerAndVerify(t, ctx, "a@b.com")

	pair, err := f.auth.Login(ctx, "a@b.com", "secret123")
	require.NoError(t, err)

	selector, err := f.tokens.SplitRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, selector+".forged-verifier")
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestLogoutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.registerAndVerify(t, ctx, "a@b.com")

	pair, err := f.auth.Login(ctx, "a@b.com", "secret123")
	require.NoError(t, err)

	userID, err := f.tokens.ValidateAccessTokenAndGetUserID(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, userID, pair.AccessToken))

	_, err = f.tokens.ValidateAccessTokenAndGetUserID(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestMeReturnsProfile(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.registerAndVerify(t, ctx, "a@b.com")

	user, err := f.storage.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)

	profile, err := f.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", profile.Email)
	require.Equal(t, "Ada B", profile.FullName)
}
