package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/domain"
)

func createTestKey(t *testing.T, s *Store, id, code string, maxUses int) {
	t.Helper()
	key := &domain.AccessKey{Code: normalizeCode(code), MaxUses: maxUses}
	key.ID = id
	key.InitTimestamps()
	require.NoError(t, s.AccessKeys.Create(context.Background(), id, key))
}

func TestRedeemAccessKey_SpendsOneUse(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	createTestKey(t, s, "key-1", "DROP2026", 2)

	redeemed, err := s.RedeemAccessKey(ctx, "DROP2026")
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.CurrentUses)
	assert.Equal(t, 1, redeemed.RemainingUses())

	redeemed, err = s.RedeemAccessKey(ctx, "DROP2026")
	require.NoError(t, err)
	assert.Equal(t, 2, redeemed.CurrentUses)
	assert.True(t, redeemed.IsExhausted())
}

func TestRedeemAccessKey_Exhausted(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	createTestKey(t, s, "key-1", "ONESHOT", 1)

	_, err := s.RedeemAccessKey(ctx, "ONESHOT")
	require.NoError(t, err)

	_, err = s.RedeemAccessKey(ctx, "ONESHOT")
	assert.ErrorIs(t, err, ErrAccessKeyExhausted)

	// The failed redemption must not touch the counter
	key, err := s.AccessKeys.GetByIndex(ctx, "code", "ONESHOT")
	require.NoError(t, err)
	assert.Equal(t, 1, key.CurrentUses)
}

func TestRedeemAccessKey_CaseInsensitiveCode(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	createTestKey(t, s, "key-1", "DROP2026", 5)

	redeemed, err := s.RedeemAccessKey(ctx, "  drop2026 ")
	require.NoError(t, err)
	assert.Equal(t, "DROP2026", redeemed.Code)
}

func TestRedeemAccessKey_UnknownCode(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.RedeemAccessKey(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrAccessKeyNotFound)
}

func TestAccessKeys_DuplicateCodeRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	createTestKey(t, s, "key-1", "DROP2026", 1)

	dup := &domain.AccessKey{Code: "drop2026", MaxUses: 1}
	dup.ID = "key-2"
	err := s.AccessKeys.Create(ctx, dup.ID, dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
