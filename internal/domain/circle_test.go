package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircle_IsFull(t *testing.T) {
	tests := []struct {
		name     string
		claimed  int
		capacity int
		expected bool
	}{
		{"empty", 0, 100, false},
		{"one spot left", 99, 100, false},
		{"exactly full", 100, 100, true},
		{"over capacity", 101, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Circle{Capacity: tt.capacity, ClaimedCount: tt.claimed}
			assert.Equal(t, tt.expected, c.IsFull())
		})
	}
}

func TestCircle_SpotsLeft_NeverNegative(t *testing.T) {
	c := &Circle{Capacity: 10, ClaimedCount: 12}
	assert.Equal(t, 0, c.SpotsLeft())
}

func TestCircle_SealAndOpen(t *testing.T) {
	c := &Circle{IsLive: true}

	c.Seal()
	assert.False(t, c.IsLive)
	assert.NotNil(t, c.SealedAt)

	c.Open()
	assert.True(t, c.IsLive)
	assert.Nil(t, c.SealedAt)
	assert.NotNil(t, c.OpenedAt)
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fan@example.com", "fan@example.com"},
		{"Fan@Example.COM", "fan@example.com"},
		{"  fan@example.com  ", "fan@example.com"},
		{" MIXED@Case.Org\t", "mixed@case.org"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}

func TestAccessKey_Exhaustion(t *testing.T) {
	key := &AccessKey{Code: "DROP2026", CurrentUses: 0, MaxUses: 2}

	assert.False(t, key.IsExhausted())
	assert.Equal(t, 2, key.RemainingUses())

	key.CurrentUses = 2
	assert.True(t, key.IsExhausted())
	assert.Equal(t, 0, key.RemainingUses())

	key.CurrentUses = 3
	assert.Equal(t, 0, key.RemainingUses(), "remaining uses never goes negative")
}

func TestSyncable_MarkDeleted(t *testing.T) {
	var s Syncable
	s.InitTimestamps()
	assert.False(t, s.IsDeleted())

	s.MarkDeleted()
	assert.True(t, s.IsDeleted())
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
}

func TestUser_IsOperator(t *testing.T) {
	assert.True(t, (&User{IsRoot: true, Role: RoleArtist}).IsOperator())
	assert.True(t, (&User{Role: RoleOperator}).IsOperator())
	assert.False(t, (&User{Role: RoleArtist}).IsOperator())
}
