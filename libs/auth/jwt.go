package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the subset of the medical API token the portal reads.
// The portal never verifies the signature: the API that issued the token does that on every call.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Subject returns the user id carried by the token, preferring the custom id claim.
func (c *Claims) Subject() string {
	if c.ID != "" {
		return c.ID
	}
	return c.RegisteredClaims.Subject
}

// ParseUnverified decodes the token payload and rejects expired tokens.
func ParseUnverified(token string, now time.Time) (*Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

// TokenTTL returns how long the token stays valid, capped at max.
// Opaque tokens and tokens without exp get max.
func TokenTTL(token string, now time.Time, max time.Duration) (time.Duration, error) {
	claims, err := ParseUnverified(token, now)
	if errors.Is(err, ErrTokenExpired) {
		return 0, err
	}
	if err != nil || claims.ExpiresAt == nil {
		return max, nil
	}
	ttl := claims.ExpiresAt.Sub(now)
	if max > 0 && ttl > max {
		return max, nil
	}
	return ttl, nil
}

// BearerToken extracts the credential from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
