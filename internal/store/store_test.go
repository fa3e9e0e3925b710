package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func newTestCircle(id, artistID string) *domain.Circle {
	c := &domain.Circle{
		ArtistID: artistID,
		Title:    "midnight demos",
		Capacity: 100,
		IsLive:   true,
	}
	c.ID = id
	c.InitTimestamps()
	return c
}

func TestUsers_EmailIndexCaseInsensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := &domain.User{Email: "Artist@Example.COM", Role: domain.RoleArtist}
	u.ID = "user-1"
	u.InitTimestamps()

	require.NoError(t, s.Users.Create(ctx, u.ID, u))

	found, err := s.Users.GetByIndex(ctx, "email", "artist@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.ID)

	found, err = s.Users.GetByIndex(ctx, "email", "ARTIST@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.ID)
}

func TestUsers_DuplicateEmailRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := &domain.User{Email: "artist@example.com"}
	a.ID = "user-1"
	require.NoError(t, s.Users.Create(ctx, a.ID, a))

	b := &domain.User{Email: "ARTIST@example.com"}
	b.ID = "user-2"
	err := s.Users.Create(ctx, b.ID, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestEntity_UpdateMovesIndex(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := &domain.User{Email: "old@example.com"}
	u.ID = "user-1"
	require.NoError(t, s.Users.Create(ctx, u.ID, u))

	u.Email = "new@example.com"
	require.NoError(t, s.Users.Update(ctx, u.ID, u))

	_, err := s.Users.GetByIndex(ctx, "email", "old@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := s.Users.GetByIndex(ctx, "email", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.ID)
}

func TestEntity_DeleteIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Users.Delete(ctx, "never-existed"))
}

func TestEntity_List(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"user-1", "user-2", "user-3"} {
		u := &domain.User{Email: id + "@example.com"}
		u.ID = id
		require.NoError(t, s.Users.Create(ctx, id, u))
	}

	var count int
	for u, err := range s.Users.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, u)
		count++
	}
	assert.Equal(t, 3, count)
}

func TestSessions_CreateGetDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		ID:               "sess-1",
		UserID:           "user-1",
		RefreshTokenHash: "hash-a",
		ExpiresAt:        time.Now().Add(time.Hour),
		CreatedAt:        time.Now(),
		LastSeenAt:       time.Now(),
	}

	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	byToken, err := s.GetSessionByRefreshToken(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", byToken.ID)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	_, err = s.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessions_ExpiredRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		ID:               "sess-expired",
		UserID:           "user-1",
		RefreshTokenHash: "hash-b",
		ExpiresAt:        time.Now().Add(-time.Minute),
	}

	require.NoError(t, s.CreateSession(ctx, session))

	_, err := s.GetSession(ctx, "sess-expired")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessions_TokenRotation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		ID:               "sess-rot",
		UserID:           "user-1",
		RefreshTokenHash: "hash-old",
		ExpiresAt:        time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, session))

	session.RefreshTokenHash = "hash-new"
	require.NoError(t, s.UpdateSession(ctx, session))

	_, err := s.GetSessionByRefreshToken(ctx, "hash-old")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := s.GetSessionByRefreshToken(ctx, "hash-new")
	require.NoError(t, err)
	assert.Equal(t, "sess-rot", got.ID)
}

func TestSessions_ListUserSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"sess-a", "sess-b"} {
		require.NoError(t, s.CreateSession(ctx, &domain.Session{
			ID:               id,
			UserID:           "user-1",
			RefreshTokenHash: "hash-" + id,
			ExpiresAt:        time.Now().Add(time.Duration(i+1) * time.Hour),
		}))
	}
	require.NoError(t, s.CreateSession(ctx, &domain.Session{
		ID:               "sess-other",
		UserID:           "user-2",
		RefreshTokenHash: "hash-other",
		ExpiresAt:        time.Now().Add(time.Hour),
	}))

	sessions, err := s.ListUserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
