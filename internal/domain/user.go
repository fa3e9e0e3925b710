package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleOperator grants full administrative access, including access key provisioning.
	RoleOperator Role = "operator"
	// RoleArtist grants standard artist access: circles, artifacts, rosters.
	RoleArtist Role = "artist"
)

// User represents an authenticated artist account.
// Fans never get accounts; they claim spots by email through the access gate.
type User struct {
	Syncable
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	IsRoot       bool      `json:"is_root"`
	Role         Role      `json:"role"`
	ArtistName   string    `json:"artist_name"`
	AccessKey    string    `json:"access_key,omitempty"` // Code redeemed at registration
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsOperator returns true if the user has administrative privileges.
// Root users are automatically operators, regardless of their role field.
func (u *User) IsOperator() bool {
	return u.IsRoot || u.Role == RoleOperator
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.ArtistName != "" {
		return u.ArtistName
	}
	return u.Email
}

// Session represents an active user session with refresh token.
// Each device gets its own session.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	ClientName       string    `json:"client_name,omitempty"`
	Platform         string    `json:"platform,omitempty"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
