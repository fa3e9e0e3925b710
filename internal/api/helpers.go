package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropcircles/dropcircles-server/internal/auth"
)

// authenticateRequest validates the Authorization header and returns the artist's user ID.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	token, err := bearerToken(authHeader)
	if err != nil {
		return "", err
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return user.ID, nil
}

// fanSession validates the Authorization header as a fan session token.
// Artist tokens are rejected; the audiences are disjoint.
func (s *Server) fanSession(authHeader string) (*auth.FanClaims, error) {
	token, err := bearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyFanToken(token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired session token")
	}

	return claims, nil
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	return parts[1], nil
}

// extractIP picks the client IP from forwarding headers.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}

// getClientIP extracts the client IP from a raw request.
// Checks X-Forwarded-For and X-Real-IP before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if ip := extractIP(r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	// Strip the port from RemoteAddr.
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
