package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisRateLimitPrefix = "oncree:ratelimit:"

// RedisRateLimitStore counts requests in fixed windows shared by every
// replica: INCR the key, start its expiry on the first hit, read what is
// left of the window.
type RedisRateLimitStore struct {
	client redis.UniversalClient
}

func NewRedisRateLimitStore(client redis.UniversalClient) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, cfg RateLimitConfig) (time.Duration, bool, error) {
	k := redisRateLimitPrefix + key

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, cfg.Window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("ratelimit: redis: %w", err)
	}

	if count.Val() <= int64(cfg.RequestsPerWindow) {
		return 0, true, nil
	}

	retry := ttl.Val()
	if retry <= 0 {
		retry = cfg.Window
	}
	return retry, false, nil
}

var _ RateLimitStore = (*RedisRateLimitStore)(nil)
