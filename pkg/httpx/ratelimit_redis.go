package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiterStore counts requests in Redis with a fixed window, so every
// replica behind a load balancer shares one budget per key. Burst is
// ignored; the window allows RequestsPerWindow hits.
type RedisLimiterStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLimiterStore returns a store that namespaces its keys under prefix.
func NewRedisLimiterStore(client redis.UniversalClient, prefix string) *RedisLimiterStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiterStore{client: client, prefix: prefix}
}

// Allow implements LimiterStore.
func (s *RedisLimiterStore) Allow(ctx context.Context, key string, cfg RateLimitConfig) (bool, time.Duration, error) {
	redisKey := s.prefix + ":" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: incr: %w", err)
	}

	// Fixed window: the first hit starts the clock.
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, cfg.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}

	if count <= int64(cfg.RequestsPerWindow) {
		return true, 0, nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: pttl: %w", err)
	}
	if ttl <= 0 {
		// The key lost its expiry somehow; put it back so it can't stick forever
		_ = s.client.Expire(ctx, redisKey, cfg.Window).Err()
		ttl = cfg.Window
	}

	return false, ttl, nil
}

// Ping checks the Redis connection.
func (s *RedisLimiterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
