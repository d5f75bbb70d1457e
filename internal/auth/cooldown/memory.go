package cooldown

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Memory is a per-process Limiter built on token buckets with a burst of
// one, so a key refills exactly one cooldown after it was reserved.
type Memory struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

// NewMemory returns a Limiter holding each key for window. A non-positive
// window disables limiting.
func NewMemory(window time.Duration) Limiter {
	if window <= 0 {
		return Disabled{}
	}
	return newMemory(window, time.Now)
}

func newMemory(window time.Duration, now func() time.Time) *Memory {
	return &Memory{
		window:  window,
		now:     now,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (m *Memory) Reserve(_ context.Context, key string) (time.Duration, bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	lim, ok := m.buckets[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(m.window), 1)
		m.buckets[key] = lim
	}

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, false, nil
	}
	return 0, true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.buckets, key)
	m.mu.Unlock()
	return nil
}

// sweep drops buckets that have fully refilled. Runs at most once per window.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now

	for key, lim := range m.buckets {
		if lim.TokensAt(now) >= 1 {
			delete(m.buckets, key)
		}
	}
}

var _ Limiter = (*Memory)(nil)
