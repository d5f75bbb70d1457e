package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryReserve(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newMemory(time.Minute, clock.Now)

	key := Key("password_reset", "alice@example.com")

	_, ok, err := m.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(20 * time.Second)
	retry, ok, err := m.Reserve(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
	require.InDelta(t, (40 * time.Second).Seconds(), retry.Seconds(), 0.01)

	// A refused attempt must not push the window further out.
	clock.Advance(40 * time.Second)
	_, ok, err = m.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	m := newMemory(time.Minute, clock.Now)

	_, ok, _ := m.Reserve(ctx, Key("password_reset", "a@example.com"))
	require.True(t, ok)
	_, ok, _ = m.Reserve(ctx, Key("login_mfa", "a@example.com"))
	require.True(t, ok)
	_, ok, _ = m.Reserve(ctx, Key("password_reset", "b@example.com"))
	require.True(t, ok)
}

func TestMemoryRelease(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	m := newMemory(time.Minute, clock.Now)

	_, ok, _ := m.Reserve(ctx, "k")
	require.True(t, ok)

	require.NoError(t, m.Release(ctx, "k"))

	_, ok, _ = m.Reserve(ctx, "k")
	require.True(t, ok)
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	m := newMemory(time.Minute, clock.Now)

	_, _, _ = m.Reserve(ctx, "a")
	_, _, _ = m.Reserve(ctx, "b")

	clock.Advance(2 * time.Minute)
	_, _, _ = m.Reserve(ctx, "c")

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.buckets, 1)
}

func TestZeroWindowDisables(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(0)

	for range 3 {
		_, ok, err := l.Reserve(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
}
