// Package cooldown enforces the minimum interval between two codes issued
// for the same identity and purpose.
package cooldown

import (
	"context"
	"time"
)

// Limiter reserves a key for a cooldown window. Implementations must be safe
// for concurrent use.
type Limiter interface {
	// Reserve claims key for one window. When the key is already held it
	// returns ok=false and how long until it frees up.
	Reserve(ctx context.Context, key string) (retryAfter time.Duration, ok bool, err error)

	// Release frees key early, e.g. when the code it guarded was never delivered.
	Release(ctx context.Context, key string) error
}

// Key builds the limiter key for an identity and purpose.
func Key(purpose, identity string) string {
	return purpose + ":" + identity
}

// Disabled never limits. Used when the configured cooldown is zero.
type Disabled struct{}

func (Disabled) Reserve(context.Context, string) (time.Duration, bool, error) { return 0, true, nil }
func (Disabled) Release(context.Context, string) error                         { return nil }

var _ Limiter = Disabled{}
