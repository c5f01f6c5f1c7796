package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "portal:session:"

// RedisKV is the part of redis.Cmdable the session store needs.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps sealed sessions in Redis with a TTL matching the session expiry.
type RedisStore struct {
	rdb    RedisKV
	sealer *Sealer
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb RedisKV, sealer *Sealer) *RedisStore {
	return &RedisStore{rdb: rdb, sealer: sealer, prefix: defaultKeyPrefix, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	sealed, err := s.sealer.Seal(sess.ID, raw)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.prefix+sess.ID, sealed, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	sealed, err := s.rdb.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	// A record sealed under a previous key, or otherwise unreadable, is
	// dropped so the client is sent back to login.
	raw, err := s.sealer.Open(id, sealed)
	if err != nil {
		return Session{}, s.discard(ctx, id)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, s.discard(ctx, id)
	}
	if sess.Expired(s.now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) discard(ctx context.Context, id string) error {
	if err := s.Delete(ctx, id); err != nil {
		return fmt.Errorf("drop unreadable session: %w", err)
	}
	return ErrNotFound
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.prefix+id).Err()
}
