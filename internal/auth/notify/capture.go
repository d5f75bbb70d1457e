package notify

import (
	"context"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/devotp"
)

// Capture copies every successfully delivered code into a dev OTP store.
type Capture struct {
	Next  Notifier
	Store devotp.Store
	Now   func() time.Time
}

func (c *Capture) Send(ctx context.Context, msg Message) error {
	if err := c.Next.Send(ctx, msg); err != nil {
		return err
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	c.Store.Put(ctx, devotp.Entry{
		ChallengeID: msg.ChallengeID,
		Identity:    msg.To,
		Purpose:     string(msg.Purpose),
		Code:        msg.Code,
		ExpiresAt:   now().Add(msg.TTL),
	})
	return nil
}

var _ Notifier = (*Capture)(nil)
