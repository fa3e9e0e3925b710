package service

import (
	"context"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/domain"
	"github.com/dropcircles/dropcircles-server/internal/playback"
	"github.com/dropcircles/dropcircles-server/internal/store"
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// testEnv bundles the services with their shared backing store.
type testEnv struct {
	store     *store.Store
	tokens    *auth.TokenService
	signer    *vault.Signer
	vault     *vault.Storage
	guard     *playback.Guard
	auth      *AuthService
	sessions  *SessionService
	circles   *CircleService
	artifacts *ArtifactService
	delivery  *DeliveryService
	gate      *GateService
	waitlist  *WaitlistService
	feedback  *FeedbackService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()

	s, err := store.New(filepath.Join(dir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(key, 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	vaultStorage, err := vault.NewStorage(filepath.Join(dir, "vault"))
	require.NoError(t, err)

	signer, err := vault.NewSigner(key, 15*time.Minute)
	require.NoError(t, err)

	guard := playback.NewGuard()
	sessions := NewSessionService(s, tokens, nil)
	delivery := NewDeliveryService(s, signer, vaultStorage, guard, "http://localhost:8180", nil)

	return &testEnv{
		store:     s,
		tokens:    tokens,
		signer:    signer,
		vault:     vaultStorage,
		guard:     guard,
		auth:      NewAuthService(s, tokens, sessions, nil),
		sessions:  sessions,
		circles:   NewCircleService(s, vaultStorage, 3, 100, nil),
		artifacts: NewArtifactService(s, vaultStorage, nil),
		delivery:  delivery,
		gate:      NewGateService(s, tokens, delivery, guard, nil, nil),
		waitlist:  NewWaitlistService(s, nil),
		feedback:  NewFeedbackService(s, nil),
	}
}

// provisionKey creates an access key directly in the store, the way
// the seeding command does.
func provisionKey(t *testing.T, env *testEnv, code string, maxUses int) {
	t.Helper()

	key := &domain.AccessKey{
		Code:    code,
		MaxUses: maxUses,
	}
	key.ID = "key-" + code
	key.InitTimestamps()
	require.NoError(t, env.store.AccessKeys.Create(context.Background(), key.ID, key))
}

// registerArtist provisions a single-use key and registers an artist with it.
func registerArtist(t *testing.T, env *testEnv, email string) *AuthResponse {
	t.Helper()

	code := "KEY-" + email
	provisionKey(t, env, code, 1)

	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		AccessKey:  code,
		Email:      email,
		Password:   "correct-horse-battery",
		ArtistName: "The Static",
	})
	require.NoError(t, err)
	return resp
}

// liveCircle creates a circle for the artist and puts it live.
func liveCircle(t *testing.T, env *testEnv, artistID string, capacity int) *domain.Circle {
	t.Helper()
	ctx := context.Background()

	circle, err := env.circles.CreateCircle(ctx, artistID, CreateCircleRequest{
		Title:    "Basement Tapes",
		Capacity: capacity,
	})
	require.NoError(t, err)

	live := true
	circle, err = env.circles.UpdateCircle(ctx, artistID, circle.ID, UpdateCircleRequest{IsLive: &live})
	require.NoError(t, err)
	return circle
}
