package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/domain"
)

func newWaitlistEntry(id, circleID, email string) *domain.WaitlistEntry {
	e := &domain.WaitlistEntry{CircleID: circleID, Email: domain.NormalizeEmail(email)}
	e.ID = id
	e.InitTimestamps()
	return e
}

func TestJoinWaitlist_FirstJoinCreates(t *testing.T) {
	s := setupTestStore(t)

	created, err := s.JoinWaitlist(context.Background(), newWaitlistEntry("w-1", "cir-1", "fan@example.com"))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestJoinWaitlist_DuplicateIsSuccess(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := newWaitlistEntry("w-1", "cir-1", "fan@example.com")
	created, err := s.JoinWaitlist(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	// Same email again, different casing
	second := newWaitlistEntry("w-2", "cir-1", "FAN@example.com")
	created, err = s.JoinWaitlist(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "w-1", second.ID, "duplicate join returns the original entry")

	entries, err := s.ListWaitlist(ctx, "cir-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListWaitlist_OldestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, email := range []string{"third@example.com", "first@example.com", "second@example.com"} {
		e := newWaitlistEntry("w-"+email, "cir-1", email)
		e.CreatedAt = base.Add(time.Duration(i) * time.Second)
		_, err := s.JoinWaitlist(ctx, e)
		require.NoError(t, err)
	}

	entries, err := s.ListWaitlist(ctx, "cir-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third@example.com", entries[0].Email)
}

func TestRemoveFromWaitlist_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.JoinWaitlist(ctx, newWaitlistEntry("w-1", "cir-1", "fan@example.com"))
	require.NoError(t, err)

	require.NoError(t, s.RemoveFromWaitlist(ctx, "cir-1", "fan@example.com"))
	require.NoError(t, s.RemoveFromWaitlist(ctx, "cir-1", "fan@example.com"))

	entries, err := s.ListWaitlist(ctx, "cir-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
