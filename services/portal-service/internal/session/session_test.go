package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/redis/go-redis/v9"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestNewFollowsTokenExpiry(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s, err := New(signedToken(t, now.Add(10*time.Minute)), medapi.User{ID: "u1"}, now, time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := s.ExpiresAt.Sub(now); got != 10*time.Minute {
		t.Fatalf("expected 10m lifetime, got %s", got)
	}
	if s.ID == "" || s.ID == s.Token {
		t.Fatal("expected an opaque session id")
	}

	if _, err := New(signedToken(t, now.Add(-time.Minute)), medapi.User{}, now, time.Hour); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	s := Session{ID: "s1", Token: "tok", ExpiresAt: now.Add(time.Minute)}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := store.Get(ctx, "s1"); err != nil || got.Token != "tok" {
		t.Fatalf("unexpected %+v (%v)", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestSealerRoundTrip(t *testing.T) {
	sealer, err := NewSealer([]byte("0123456789abcdef-secret"))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	sealed, err := sealer.Seal("s1", []byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("payload")) {
		t.Fatal("plaintext leaked into sealed record")
	}
	got, err := sealer.Open("s1", sealed)
	if err != nil || string(got) != "payload" {
		t.Fatalf("unexpected %q (%v)", got, err)
	}
	if _, err := sealer.Open("s2", sealed); err == nil {
		t.Fatal("expected record bound to another id to fail")
	}

	if _, err := NewSealer([]byte("short")); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	sealer, err := NewSealer([]byte("0123456789abcdef-secret"))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	store := NewRedisStore(rdb, sealer)
	ctx := context.Background()

	s := Session{ID: "test-" + time.Now().Format("150405.000000"), Token: "tok", User: medapi.User{ID: "u1"}, ExpiresAt: time.Now().Add(time.Minute)}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil || got.User.ID != "u1" {
		t.Fatalf("unexpected %+v (%v)", got, err)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// mapKV is an in-process stand-in for the three Redis commands the store uses.
type mapKV struct {
	data map[string]string
}

func (m *mapKV) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mapKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStoreRotatedKeyEndsSession(t *testing.T) {
	kv := &mapKV{data: map[string]string{}}
	oldKey, err := NewSealer([]byte("0123456789abcdef-before-restart"))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	newKey, err := NewSealer([]byte("0123456789abcdef-after-restart"))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	ctx := context.Background()

	s := Session{ID: "s1", Token: "tok", User: medapi.User{ID: "u1"}, ExpiresAt: time.Now().Add(time.Hour)}
	if err := NewRedisStore(kv, oldKey).Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := NewRedisStore(kv, newKey).Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a record sealed under another key, got %v", err)
	}
	if _, ok := kv.data[defaultKeyPrefix+"s1"]; ok {
		t.Fatal("expected the unreadable record to be deleted")
	}
}

func TestRedisStoreRoundTripInProcess(t *testing.T) {
	kv := &mapKV{data: map[string]string{}}
	sealer, err := NewSealer([]byte("0123456789abcdef-secret"))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	store := NewRedisStore(kv, sealer)
	ctx := context.Background()

	s := Session{ID: "s2", Token: "tok", User: medapi.User{ID: "u2"}, ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, "s2")
	if err != nil || got.User.ID != "u2" || got.Token != "tok" {
		t.Fatalf("unexpected %+v (%v)", got, err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Save(ctx, Session{ID: "old", ExpiresAt: now.Add(time.Minute)})
	_ = store.Save(ctx, Session{ID: "fresh", ExpiresAt: now.Add(time.Hour)})

	now = now.Add(10 * time.Minute)
	if n := store.Sweep(); n != 1 {
		t.Fatalf("expected one expired session swept, got %d", n)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Fatalf("expected live session to survive the sweep: %v", err)
	}
}
