package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/medportal/libs/auth"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

var ErrNotFound = errors.New("session not found")

// Session holds what the browser used to keep in local storage: the remote API token
// and the cached user object. Clients only ever see ID.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      medapi.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// New starts a session for token. Its lifetime follows the token expiry, capped at maxTTL.
func New(token string, user medapi.User, now time.Time, maxTTL time.Duration) (Session, error) {
	ttl, err := auth.TokenTTL(token, now, maxTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
