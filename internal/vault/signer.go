package vault

import (
	"encoding/json/v2"
	"fmt"
	"net/url"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	streamIssuer   = "dropcircles-vault"
	streamAudience = "dropcircles-stream"

	signerKeySize = 32
)

// StreamClaims are the claims carried by a signed stream token.
type StreamClaims struct {
	ArtifactID string `json:"artifact_id"`
	CircleID   string `json:"circle_id"`
	Email      string `json:"email"`
	SessionID  string `json:"session_id"`

	Expiration time.Time `json:"exp"`
	IssuedAt   time.Time `json:"iat"`
}

// Signer issues and verifies short-lived stream tokens.
// A token grants one email access to one artifact until it expires;
// the URL it rides in can be shared, but it goes dark on its own.
type Signer struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
}

// NewSigner creates a Signer from a 32-byte key and a default token lifetime.
func NewSigner(key []byte, ttl time.Duration) (*Signer, error) {
	if len(key) != signerKeySize {
		return nil, fmt.Errorf("stream signing key must be exactly %d bytes, got %d", signerKeySize, len(key))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("stream token TTL must be positive, got %s", ttl)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream signing key: %w", err)
	}

	return &Signer{symmetricKey: symmetricKey, ttl: ttl}, nil
}

// TTL returns the default token lifetime.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign issues a stream token for one artifact, bound to the fan
// session that requested it.
func (s *Signer) Sign(artifactID, circleID, email, sessionID string) (string, error) {
	if artifactID == "" {
		return "", fmt.Errorf("artifact ID cannot be empty")
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(streamIssuer)
	token.SetAudience(streamAudience)
	token.SetSubject(artifactID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.ttl))

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("artifact_id", artifactID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("circle_id", circleID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("email", email)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("session_id", sessionID)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify checks a stream token and returns its claims.
// Expired or tampered tokens are rejected.
func (s *Signer) Verify(tokenString string) (*StreamClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(streamAudience))
	parser.AddRule(paseto.IssuedBy(streamIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid stream token: %w", err)
	}

	var claims StreamClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse stream claims: %w", err)
	}

	return &claims, nil
}

// StreamURL builds the redemption URL for an artifact token.
// baseURL may be empty, producing a relative URL.
func StreamURL(baseURL, artifactID, token string) string {
	return fmt.Sprintf("%s/api/v1/stream/%s?token=%s", baseURL, artifactID, url.QueryEscape(token))
}
