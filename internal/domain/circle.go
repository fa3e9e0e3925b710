package domain

import "time"

// Circle represents a gated drop: a capped roster of fan emails with
// access to a set of audio artifacts.
type Circle struct {
	Syncable
	ArtistID     string     `json:"artist_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Capacity     int        `json:"capacity"`
	ClaimedCount int        `json:"claimed_count"`
	IsLive       bool       `json:"is_live"`
	SealedAt     *time.Time `json:"sealed_at,omitempty"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
}

// IsFull returns true when every spot has been claimed.
func (c *Circle) IsFull() bool {
	return c.ClaimedCount >= c.Capacity
}

// SpotsLeft returns the number of unclaimed spots, never negative.
func (c *Circle) SpotsLeft() int {
	left := c.Capacity - c.ClaimedCount
	if left < 0 {
		return 0
	}
	return left
}

// Seal takes the circle off the air. Existing roster members keep access.
func (c *Circle) Seal() {
	now := time.Now()
	c.IsLive = false
	c.SealedAt = &now
	c.UpdatedAt = now
}

// Open puts the circle live so fans can claim spots.
func (c *Circle) Open() {
	now := time.Now()
	c.IsLive = true
	c.SealedAt = nil
	c.OpenedAt = &now
	c.UpdatedAt = now
}

// DenialReason explains why a claim was refused. Fans see these verbatim.
type DenialReason string

const (
	// DenialSealed means the circle is not live.
	DenialSealed DenialReason = "SEALED"
	// DenialCapacityReached means every spot is taken.
	DenialCapacityReached DenialReason = "CAPACITY_REACHED"
	// DenialSessionExpired means this email already holds a spot and cannot claim again.
	DenialSessionExpired DenialReason = "SESSION_EXPIRED"
	// DenialTransmissionFailed means the server could not complete the claim.
	DenialTransmissionFailed DenialReason = "TRANSMISSION_FAILED"
)

// RosterEntry records one claimed spot: an email admitted to a circle.
type RosterEntry struct {
	Syncable
	CircleID  string    `json:"circle_id"`
	Email     string    `json:"email"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// WaitlistEntry records an email that asked for a spot in a full circle.
type WaitlistEntry struct {
	Syncable
	CircleID string `json:"circle_id"`
	Email    string `json:"email"`
	Source   string `json:"source,omitempty"` // Where the signup came from, e.g. "drop_page"
}
