// Package notify delivers one-time codes to account holders.
package notify

import (
	"context"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
)

// Message is one code delivery. Code is the only place the plaintext ever
// travels, so implementations must never log it.
type Message struct {
	ChallengeID string
	To          string
	Purpose     domain.Purpose
	Code        string
	TTL         time.Duration
}

// TTLMinutes rounds the validity window up to whole minutes for display.
func (m Message) TTLMinutes() int {
	return int((m.TTL + time.Minute - 1) / time.Minute)
}

// Notifier sends a code to its recipient. A returned error means the
// recipient cannot be assumed to have the code.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
