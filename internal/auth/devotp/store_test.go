package devotp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewMemoryStore()
	s.nowF = func() time.Time { return now }

	s.Put(ctx, Entry{ChallengeID: "c1", Identity: "a@example.com", Purpose: "login_mfa", Code: "111111", ExpiresAt: now.Add(time.Minute)})
	s.Put(ctx, Entry{ChallengeID: "c2", Identity: "a@example.com", Purpose: "login_mfa", Code: "222222", ExpiresAt: now.Add(time.Minute)})

	t.Run("get by challenge id", func(t *testing.T) {
		code, ok := s.Get(ctx, "c1")
		require.True(t, ok)
		require.Equal(t, "111111", code)

		_, ok = s.Get(ctx, "missing")
		require.False(t, ok)
	})

	t.Run("latest by identity", func(t *testing.T) {
		code, ok := s.Latest(ctx, "a@example.com", "login_mfa")
		require.True(t, ok)
		require.Equal(t, "222222", code)

		_, ok = s.Latest(ctx, "a@example.com", "password_reset")
		require.False(t, ok)
	})

	t.Run("expired entries are gone", func(t *testing.T) {
		now = now.Add(2 * time.Minute)

		_, ok := s.Get(ctx, "c2")
		require.False(t, ok)
		_, ok = s.Latest(ctx, "a@example.com", "login_mfa")
		require.False(t, ok)
	})
}
