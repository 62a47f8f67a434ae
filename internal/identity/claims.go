package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// idTokenClaims are the ID token fields the client reads.
// Signatures are not checked here; the token is only inspected, never trusted
// for authorization.
type idTokenClaims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

func parseIDToken(token string) (*idTokenClaims, error) {
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token: %w", err)
	}
	return claims, nil
}

func (c *idTokenClaims) subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

func (c *idTokenClaims) expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}
