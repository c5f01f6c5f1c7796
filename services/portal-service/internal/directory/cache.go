package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/redis/go-redis/v9"
)

const doctorsKey = "portal:doctors:v1"

// RedisCache shares the doctor list between portal replicas.
type RedisCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context) ([]medapi.Doctor, bool) {
	raw, err := c.rdb.Get(ctx, doctorsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("doctor cache read failed", "err", err)
		}
		return nil, false
	}
	var doctors []medapi.Doctor
	if err := json.Unmarshal(raw, &doctors); err != nil {
		c.logger.Warn("doctor cache entry unreadable", "err", err)
		return nil, false
	}
	return doctors, true
}

func (c *RedisCache) Set(ctx context.Context, doctors []medapi.Doctor) {
	raw, err := json.Marshal(doctors)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, doctorsKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("doctor cache write failed", "err", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, doctorsKey).Err()
}

// MemoryCache is the single replica fallback.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	doctors []medapi.Doctor
	until   time.Time
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(context.Context) ([]medapi.Doctor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doctors == nil || !c.now().Before(c.until) {
		return nil, false
	}
	return c.doctors, true
}

func (c *MemoryCache) Set(_ context.Context, doctors []medapi.Doctor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doctors = doctors
	c.until = c.now().Add(c.ttl)
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doctors = nil
	return nil
}
