package notify

import (
	"context"
	"log/slog"

	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

// LogNotifier records that a code went out without sending anything. It is
// the default when no SMTP relay is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("verification code dispatched",
		slog.String("recipient", cryptox.IdentityFingerprint(msg.To)),
		slog.String("purpose", string(msg.Purpose)),
		slog.String("challenge_id", msg.ChallengeID),
		slog.Int("ttl_minutes", msg.TTLMinutes()),
	)
	return nil
}

var _ Notifier = LogNotifier{}
