package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisPrefix namespaces the cache keys.
const DefaultRedisPrefix = "jobmatch:search:"

// Redis is a cache shared between instances. Expiry is delegated to Redis
// with SET ... EX. Any Redis failure is logged and treated as a miss.
type Redis[T any] struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedis wraps an existing client.
func NewRedis[T any](rc *redis.Client, prefix string, log *zap.Logger) *Redis[T] {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis[T]{rc: rc, prefix: prefix, ttl: TTL, log: log}
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rc, nil
}

func (c *Redis[T]) key(title, city string) string {
	return c.prefix + Key(title, city)
}

// Get returns the decoded value stored for title and city.
func (c *Redis[T]) Get(ctx context.Context, title, city string) (T, bool) {
	var zero T
	if c.rc == nil {
		return zero, false
	}

	raw, err := c.rc.Get(ctx, c.key(title, city)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", c.key(title, city)), zap.Error(err))
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Warn("cache entry is not valid json", zap.String("key", c.key(title, city)), zap.Error(err))
		return zero, false
	}
	return v, true
}

// Put encodes value as JSON and stores it with the cache TTL.
func (c *Redis[T]) Put(ctx context.Context, title, city string, value T) {
	if c.rc == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache value could not be encoded", zap.Error(err))
		return
	}
	if err := c.rc.Set(ctx, c.key(title, city), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache put failed", zap.String("key", c.key(title, city)), zap.Error(err))
	}
}
