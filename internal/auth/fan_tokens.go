package auth

import (
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/dropcircles/dropcircles-server/internal/id"
)

const (
	fanAudience = "dropcircles-fan"

	// FanSessionDuration is how long a granted fan session stays valid.
	FanSessionDuration = 12 * time.Hour
)

// FanClaims represents the claims in a fan session token, minted when
// the gate grants a spot. Fans have no account; the token is the whole
// identity.
type FanClaims struct {
	SessionID string `json:"session_id"`
	CircleID  string `json:"circle_id"`
	Email     string `json:"email"`
	Preview   bool   `json:"preview,omitempty"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
}

// GenerateFanToken creates a fan session token for a granted claim.
// Preview tokens mark artist dry-runs, which skip the playback guard.
func (s *TokenService) GenerateFanToken(circleID, email string, preview bool) (string, string, error) {
	sessionID, err := id.Generate("fan")
	if err != nil {
		return "", "", fmt.Errorf("generate fan session ID: %w", err)
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(sessionID)
	token.SetAudience(fanAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(FanSessionDuration))

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("session_id", sessionID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("circle_id", circleID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("email", email)
	if preview {
		//nolint:errcheck // Token.Set only errors on invalid types, which we control
		_ = token.Set("preview", true)
	}

	return token.V4Encrypt(s.symmetricKey, nil), sessionID, nil
}

// VerifyFanToken verifies a fan session token and returns its claims.
func (s *TokenService) VerifyFanToken(tokenString string) (*FanClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(fanAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid fan token: %w", err)
	}

	var claims FanClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse fan claims: %w", err)
	}

	return &claims, nil
}
