package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcrush/bookcrush-server/internal/auth"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/store/sqlite"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	return NewAuthService(s, tokens, validation.New(), slog.New(slog.DiscardHandler))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:       "  Reader@Example.COM ",
		Password:    "correct horse battery",
		DisplayName: "Ursula  Reader",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", reg.User.Email)
	assert.Equal(t, "Ursula Reader", reg.User.DisplayName)
	assert.Equal(t, "Bearer", reg.TokenType)
	assert.NotEmpty(t, reg.AccessToken)
	assert.True(t, reg.ExpiresAt.After(time.Now()))

	login, err := svc.Login(ctx, LoginRequest{Email: "READER@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	user, err := svc.VerifyAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)

	got, err := svc.GetUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", got.Email)
}

func TestRegister_Errors(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	req := RegisterRequest{Email: "dup@example.com", Password: "long enough", DisplayName: "Dup"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "DUP@example.com"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	_, err = svc.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "long enough", DisplayName: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Register(ctx, RegisterRequest{Email: "short@example.com", Password: "short", DisplayName: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "the password", DisplayName: "A"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "the password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestVerifyAccessToken_Rejects(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// A valid token for a user that does not exist.
	token, _, err := svc.tokens.Issue("usr-gone", "gone@example.com")
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(ctx, token)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
