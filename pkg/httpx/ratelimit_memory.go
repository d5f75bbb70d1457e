package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const memorySweepInterval = 5 * time.Minute

// MemoryRateLimitStore keeps one token bucket per key in process memory.
// Limits are per replica.
type MemoryRateLimitStore struct {
	limiters sync.Map // map[string]*rate.Limiter

	mu        sync.Mutex
	lastSweep time.Time

	now func() time.Time
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{now: time.Now, lastSweep: time.Now()}
}

func (s *MemoryRateLimitStore) Allow(_ context.Context, key string, cfg RateLimitConfig) (time.Duration, bool, error) {
	now := s.now()
	limiter := s.limiter(key, cfg, now)

	if limiter.AllowN(now, 1) {
		return 0, true, nil
	}

	// Ask when the next token arrives without taking it
	res := limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return delay, false, nil
}

func (s *MemoryRateLimitStore) limiter(key string, cfg RateLimitConfig, now time.Time) *rate.Limiter {
	if l, ok := s.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	perSecond := float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}

	actual, _ := s.limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(perSecond), burst))
	s.maybeSweep(now)
	return actual.(*rate.Limiter)
}

// maybeSweep drops buckets that have refilled completely. A full bucket
// behaves exactly like a new one, so nothing is lost.
func (s *MemoryRateLimitStore) maybeSweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) < memorySweepInterval {
		return
	}
	s.lastSweep = now

	s.limiters.Range(func(key, value any) bool {
		l := value.(*rate.Limiter)
		if l.TokensAt(now) >= float64(l.Burst()) {
			s.limiters.Delete(key)
		}
		return true
	})
}

var _ RateLimitStore = (*MemoryRateLimitStore)(nil)
