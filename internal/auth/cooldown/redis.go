package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oncree:cooldown:"

// Redis shares cooldowns between replicas. A key is held by a SET NX with
// the window as its expiry.
type Redis struct {
	client redis.UniversalClient
	window time.Duration
}

// NewRedis returns a Limiter backed by client. A non-positive window
// disables limiting.
func NewRedis(client redis.UniversalClient, window time.Duration) Limiter {
	if window <= 0 {
		return Disabled{}
	}
	return &Redis{client: client, window: window}
}

func (r *Redis) Reserve(ctx context.Context, key string) (time.Duration, bool, error) {
	k := redisKeyPrefix + key

	ok, err := r.client.SetNX(ctx, k, 1, r.window).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown: reserve: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown: ttl: %w", err)
	}
	// -1 (no expiry) or -2 (gone meanwhile) both mean "try again now".
	if ttl < 0 {
		ttl = time.Second
	}
	return ttl, false, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cooldown: release: %w", err)
	}
	return nil
}

var _ Limiter = (*Redis)(nil)
