package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
)

func TestRegisterSpendsAccessKey(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	provisionKey(t, env, "DROP-2026", 2)

	resp, err := env.auth.Register(ctx, RegisterRequest{
		AccessKey:  "drop-2026", // codes are case-insensitive
		Email:      "Artist@Example.com",
		Password:   "correct-horse-battery",
		ArtistName: "The Static",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	assert.Equal(t, "artist@example.com", resp.User.Email)
	assert.Equal(t, domain.RoleArtist, resp.User.Role)
	assert.Equal(t, "DROP-2026", resp.User.AccessKey)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	key, err := env.store.AccessKeys.GetByIndex(ctx, "code", "DROP-2026")
	require.NoError(t, err)
	assert.Equal(t, 1, key.CurrentUses)
}

func TestRegisterInvalidKey(t *testing.T) {
	env := setupServices(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		AccessKey:  "NO-SUCH-KEY",
		Email:      "artist@example.com",
		Password:   "correct-horse-battery",
		ArtistName: "The Static",
	})
	require.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestRegisterExhaustedKey(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	provisionKey(t, env, "ONE-SHOT", 1)

	_, err := env.auth.Register(ctx, RegisterRequest{
		AccessKey:  "ONE-SHOT",
		Email:      "first@example.com",
		Password:   "correct-horse-battery",
		ArtistName: "First",
	})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterRequest{
		AccessKey:  "ONE-SHOT",
		Email:      "second@example.com",
		Password:   "correct-horse-battery",
		ArtistName: "Second",
	})
	require.ErrorIs(t, err, domainerrors.ErrKeyExhausted)
}

func TestRegisterDuplicateEmailDoesNotBurnKey(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	registerArtist(t, env, "taken@example.com")
	provisionKey(t, env, "FRESH-KEY", 1)

	_, err := env.auth.Register(ctx, RegisterRequest{
		AccessKey:  "FRESH-KEY",
		Email:      "Taken@Example.com",
		Password:   "correct-horse-battery",
		ArtistName: "Impostor",
	})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	// The duplicate-email rejection happens before redemption.
	key, err := env.store.AccessKeys.GetByIndex(ctx, "code", "FRESH-KEY")
	require.NoError(t, err)
	assert.Equal(t, 0, key.CurrentUses)
}

func TestRegisterValidation(t *testing.T) {
	env := setupServices(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{
			name: "missing access key",
			req:  RegisterRequest{Email: "a@b.com", Password: "long-enough-pw", ArtistName: "X"},
		},
		{
			name: "bad email",
			req:  RegisterRequest{AccessKey: "K", Email: "not-an-email", Password: "long-enough-pw", ArtistName: "X"},
		},
		{
			name: "short password",
			req:  RegisterRequest{AccessKey: "K", Email: "a@b.com", Password: "short", ArtistName: "X"},
		},
		{
			name: "missing artist name",
			req:  RegisterRequest{AccessKey: "K", Email: "a@b.com", Password: "long-enough-pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	registerArtist(t, env, "artist@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "ARTIST@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "artist@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = env.auth.Login(ctx, LoginRequest{
		Email:    "artist@example.com",
		Password: "wrong-password-entirely",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse-battery",
	})
	// Unknown email and wrong password are indistinguishable.
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerArtist(t, env, "artist@example.com")

	rotated, err := env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	// The old refresh token is dead after rotation.
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The rotated one still works.
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
}

func TestLogoutKillsSession(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerArtist(t, env, "artist@example.com")

	require.NoError(t, env.auth.Logout(ctx, resp.SessionID))

	_, err := env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestVerifyAccessToken(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerArtist(t, env, "artist@example.com")

	user, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, _, err = env.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	require.Error(t, err)
}
