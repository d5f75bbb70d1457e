package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/cooldown"
	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/notify"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/idx"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

const (
	DefaultCodeTTL     = 10 * time.Minute
	DefaultMaxAttempts = 3

	// maxCodeGenerations bounds the retries spent looking for a code that no
	// retained challenge of the identity already uses.
	maxCodeGenerations = 10

	// deliveryRetryAfter is suggested to clients when the mail relay fails.
	deliveryRetryAfter = 30 * time.Second
)

// Matcher decides whether code answers challenge c.
type Matcher func(c domain.VerificationChallenge, code string) bool

// MatchEmailedCode compares code against the stored keyed hash.
func MatchEmailedCode(c domain.VerificationChallenge, code string) bool {
	return cryptox.CodeMatches(c.ID, code, c.CodeHash)
}

// Target selects the challenge a verification is aimed at. Password reset
// clients only know the email; login clients hold a challenge id.
type Target struct {
	Identity    string
	ChallengeID string
	Purpose     domain.Purpose
}

func ByIdentity(identity string, purpose domain.Purpose) Target {
	return Target{Identity: domain.NormalizeEmail(identity), Purpose: purpose}
}

func ByChallenge(challengeID string, purpose domain.Purpose) Target {
	return Target{ChallengeID: challengeID, Purpose: purpose}
}

// VerifyRequest describes one verification.
type VerifyRequest struct {
	Target Target
	Code   string
	Mode   domain.VerifyMode

	// Match defaults to MatchEmailedCode.
	Match Matcher

	// Then runs in the same transaction after a successful verification.
	// Returning an error rolls the verification back.
	Then func(tx store.Tx, v domain.Verification) error
}

// ChallengeSummary is the admin view of a challenge. It never carries the
// code hash.
type ChallengeSummary struct {
	ID           string
	Purpose      domain.Purpose
	State        domain.ChallengeState
	AttemptCount int
	AttemptsLeft int
	IssuedAt     time.Time
	ExpiresAt    time.Time
	VerifiedAt   *time.Time
	ConsumedAt   *time.Time
}

// ChallengeService issues, resends and verifies one-time codes.
type ChallengeService struct {
	Store       store.Store
	Notifier    notify.Notifier
	Cooldown    cooldown.Limiter
	TTL         time.Duration
	MaxAttempts int

	// Now is overridable for tests.
	Now func() time.Time

	locks keyLock
}

func (s *ChallengeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ChallengeService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultCodeTTL
	}
	return s.TTL
}

func (s *ChallengeService) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return s.MaxAttempts
}

func lockKey(identity string, purpose domain.Purpose) string {
	return string(purpose) + ":" + identity
}

// ReserveCooldown claims the resend window for identity and purpose.
// Callers that answer unknown accounts use it so both paths throttle alike.
func (s *ChallengeService) ReserveCooldown(ctx context.Context, identity string, purpose domain.Purpose) error {
	if s.Cooldown == nil {
		return nil
	}

	retry, ok, err := s.Cooldown.Reserve(ctx, cooldown.Key(string(purpose), domain.NormalizeEmail(identity)))
	if err != nil {
		// A broken cooldown backend must not lock everyone out.
		slogx.FromContext(ctx).Warn("cooldown reserve failed", slog.Any("error", err))
		return nil
	}
	if !ok {
		return &RetryAfterError{Err: ErrCooldown, After: retry}
	}
	return nil
}

func (s *ChallengeService) releaseCooldown(ctx context.Context, identity string, purpose domain.Purpose) {
	if s.Cooldown == nil {
		return
	}
	if err := s.Cooldown.Release(ctx, cooldown.Key(string(purpose), identity)); err != nil {
		slogx.FromContext(ctx).Warn("cooldown release failed", slog.Any("error", err))
	}
}

// Issue creates a challenge for identity and purpose, supersedes any pending
// one and delivers the code. It fails with ErrCooldown inside the resend
// window and with ErrDeliveryFailure when the notifier errors, in which case
// the new challenge is retired immediately.
func (s *ChallengeService) Issue(ctx context.Context, identity string, purpose domain.Purpose) (domain.IssuedChallenge, error) {
	identity = domain.NormalizeEmail(identity)
	if !purpose.Valid() {
		return domain.IssuedChallenge{}, fmt.Errorf("service: invalid purpose %q", purpose)
	}

	if err := s.ReserveCooldown(ctx, identity, purpose); err != nil {
		return domain.IssuedChallenge{}, err
	}

	unlock := s.locks.Lock(lockKey(identity, purpose))
	defer unlock()

	l := slogx.FromContext(ctx).With(
		slog.String("purpose", string(purpose)),
		slog.String("identity", cryptox.IdentityFingerprint(identity)),
	)

	now := s.now()
	var (
		c    domain.VerificationChallenge
		code string
	)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		retained, err := tx.Challenges().ListChallengesByIdentity(ctx, identity)
		if err != nil {
			return fmt.Errorf("list challenges: %w", err)
		}

		id := idx.NewChallengeID()
		code, err = uniqueCode(id, retained)
		if err != nil {
			return err
		}

		if _, err := tx.Challenges().SupersedePending(ctx, identity, purpose, now); err != nil {
			return fmt.Errorf("supersede pending: %w", err)
		}

		c = domain.VerificationChallenge{
			ID:        id,
			Identity:  identity,
			Purpose:   purpose,
			CodeHash:  cryptox.HashCode(id, code),
			IssuedAt:  now,
			ExpiresAt: now.Add(s.ttl()),
			State:     domain.ChallengePending,
			UpdatedAt: now,
		}
		if err := tx.Challenges().CreateChallenge(ctx, c); err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		s.releaseCooldown(ctx, identity, purpose)
		return domain.IssuedChallenge{}, err
	}

	start := time.Now()
	sendErr := s.Notifier.Send(ctx, notify.Message{
		ChallengeID: c.ID,
		To:          identity,
		Purpose:     purpose,
		Code:        code,
		TTL:         s.ttl(),
	})
	recordDelivery(purpose, start, sendErr)

	if sendErr != nil {
		l.Error("code delivery failed", slog.String("challenge_id", c.ID), slog.Any("error", sendErr))

		// Retire the challenge so no undelivered code stays answerable.
		err := s.Store.Challenges().TransitionState(ctx, c.ID, domain.ChallengePending, domain.ChallengeSuperseded, s.now())
		if err != nil && !errors.Is(err, store.ErrConflict) {
			l.Error("failed to retire undelivered challenge", slog.String("challenge_id", c.ID), slog.Any("error", err))
		}
		s.releaseCooldown(ctx, identity, purpose)
		return domain.IssuedChallenge{}, &RetryAfterError{Err: ErrDeliveryFailure, After: deliveryRetryAfter}
	}

	challengesIssuedTotal.WithLabelValues(string(purpose)).Inc()
	l.Info("challenge issued", slog.String("challenge_id", c.ID), slog.Time("expires_at", c.ExpiresAt))

	return domain.IssuedChallenge{
		ChallengeID: c.ID,
		Identity:    identity,
		Purpose:     purpose,
		ExpiresAt:   c.ExpiresAt,
	}, nil
}

// uniqueCode draws codes until one differs from every retained challenge of
// the identity. Hashes are bound to their challenge id, so each candidate is
// checked against each retained hash.
func uniqueCode(newID string, retained []domain.VerificationChallenge) (string, error) {
	for range maxCodeGenerations {
		code, err := cryptox.GenerateNumericCode(cryptox.DefaultCodeDigits)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		clash := false
		for _, c := range retained {
			if MatchEmailedCode(c, code) {
				clash = true
				break
			}
		}
		if !clash {
			return code, nil
		}
	}
	return "", fmt.Errorf("service: no unique code for challenge %s after %d attempts", newID, maxCodeGenerations)
}

// Resend issues a fresh code for the challenge's identity and purpose. It is
// refused for challenges that were consumed, replaced or are no longer the
// newest one for their identity and purpose.
func (s *ChallengeService) Resend(ctx context.Context, challengeID string, purpose domain.Purpose) (domain.IssuedChallenge, error) {
	c, err := s.Store.Challenges().GetChallengeByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IssuedChallenge{}, ErrChallengeNotFound
		}
		return domain.IssuedChallenge{}, err
	}
	if c.Purpose != purpose {
		return domain.IssuedChallenge{}, ErrChallengeNotFound
	}

	switch c.State {
	case domain.ChallengeConsumed:
		return domain.IssuedChallenge{}, ErrAlreadyConsumed
	case domain.ChallengeSuperseded:
		return domain.IssuedChallenge{}, ErrSuperseded
	}

	// Only the newest challenge may be resent. An older one that was expired
	// by housekeeping before a newer login started is still stale.
	latest, err := s.Store.Challenges().GetLatestChallenge(ctx, c.Identity, purpose)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.IssuedChallenge{}, err
	}
	if err == nil && latest.ID != c.ID {
		return domain.IssuedChallenge{}, ErrSuperseded
	}

	return s.Issue(ctx, c.Identity, purpose)
}

// Pending returns the current answerable challenge for identity and purpose.
func (s *ChallengeService) Pending(ctx context.Context, identity string, purpose domain.Purpose) (domain.IssuedChallenge, bool, error) {
	identity = domain.NormalizeEmail(identity)

	c, err := s.Store.Challenges().GetLatestChallenge(ctx, identity, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IssuedChallenge{}, false, nil
		}
		return domain.IssuedChallenge{}, false, err
	}
	if c.Evaluate(s.now()) != domain.ChallengePending {
		return domain.IssuedChallenge{}, false, nil
	}

	return domain.IssuedChallenge{
		ChallengeID: c.ID,
		Identity:    c.Identity,
		Purpose:     c.Purpose,
		ExpiresAt:   c.ExpiresAt,
	}, true, nil
}

// Lookup returns the challenge by id, mapping a miss to ErrChallengeNotFound.
func (s *ChallengeService) Lookup(ctx context.Context, challengeID string) (domain.VerificationChallenge, error) {
	id, err := idx.ParseChallengeID(challengeID)
	if err != nil {
		return domain.VerificationChallenge{}, ErrChallengeNotFound
	}
	c, err := s.Store.Challenges().GetChallengeByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.VerificationChallenge{}, ErrChallengeNotFound
	}
	return c, err
}

// List returns up to limit retained challenges of identity, newest first,
// with the effective state at the current instant. A limit below 1 returns
// all of them.
func (s *ChallengeService) List(ctx context.Context, identity string, limit int) ([]ChallengeSummary, error) {
	cs, err := s.Store.Challenges().ListChallengesByIdentity(ctx, domain.NormalizeEmail(identity))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(cs) > limit {
		cs = cs[:limit]
	}

	now := s.now()
	out := make([]ChallengeSummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, ChallengeSummary{
			ID:           c.ID,
			Purpose:      c.Purpose,
			State:        c.Evaluate(now),
			AttemptCount: c.AttemptCount,
			AttemptsLeft: c.AttemptsRemaining(s.maxAttempts()),
			IssuedAt:     c.IssuedAt,
			ExpiresAt:    c.ExpiresAt,
			VerifiedAt:   c.VerifiedAt,
			ConsumedAt:   c.ConsumedAt,
		})
	}
	return out, nil
}

// Verify evaluates code against the targeted challenge. Rejections are
// reported as ErrChallengeNotFound, ErrAlreadyConsumed, ErrLockedOut,
// ErrSuperseded, ErrChallengeExpired or ErrCodeMismatch, checked in that
// order. Attempt counting and state changes caused by a rejection are
// committed even though an error is returned.
func (s *ChallengeService) Verify(ctx context.Context, req VerifyRequest) (domain.Verification, error) {
	target := req.Target
	match := req.Match
	if match == nil {
		match = MatchEmailedCode
	}

	// Challenge-targeted calls need the identity to share the issue lock.
	identity := target.Identity
	if target.ChallengeID != "" {
		c, err := s.Store.Challenges().GetChallengeByID(ctx, target.ChallengeID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return s.verifyResult(ctx, target, domain.Verification{}, ErrChallengeNotFound)
		case err != nil:
			return domain.Verification{}, err
		}
		identity = c.Identity
	}

	unlock := s.locks.Lock(lockKey(identity, target.Purpose))
	defer unlock()

	var (
		v      domain.Verification
		reject error
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		c, err := loadTarget(ctx, tx, target)
		if errors.Is(err, store.ErrNotFound) {
			reject = ErrChallengeNotFound
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now()
		repo := tx.Challenges()

		switch c.Evaluate(now) {
		case domain.ChallengeConsumed:
			reject = ErrAlreadyConsumed
			return nil
		case domain.ChallengeLockedOut:
			reject = ErrLockedOut
			return nil
		case domain.ChallengeSuperseded:
			reject = ErrSuperseded
			return nil
		case domain.ChallengeExpired:
			if c.State == domain.ChallengePending {
				if err := repo.TransitionState(ctx, c.ID, domain.ChallengePending, domain.ChallengeExpired, now); err != nil {
					return fmt.Errorf("expire challenge: %w", err)
				}
			}
			reject = ErrChallengeExpired
			return nil
		}

		if !match(c, req.Code) {
			if target.ChallengeID == "" {
				replaced, err := matchesSuperseded(ctx, tx, c, req.Code)
				if err != nil {
					return err
				}
				if replaced {
					reject = ErrSuperseded
					return nil
				}
			}

			updated, err := repo.IncrementAttempts(ctx, c.ID, now)
			if err != nil {
				return fmt.Errorf("count attempt: %w", err)
			}
			if updated.AttemptCount >= s.maxAttempts() {
				if err := repo.TransitionState(ctx, c.ID, domain.ChallengePending, domain.ChallengeLockedOut, now); err != nil {
					return fmt.Errorf("lock challenge: %w", err)
				}
				reject = ErrLockedOut
				return nil
			}
			reject = ErrCodeMismatch
			return nil
		}

		if req.Mode == domain.VerifyCheck {
			err = repo.MarkVerified(ctx, c.ID, now)
		} else {
			err = repo.TransitionState(ctx, c.ID, domain.ChallengePending, domain.ChallengeConsumed, now)
		}
		if err != nil {
			return fmt.Errorf("%s challenge: %w", req.Mode, err)
		}

		v = domain.Verification{
			ChallengeID: c.ID,
			Identity:    c.Identity,
			Purpose:     c.Purpose,
			VerifiedAt:  now,
		}
		if req.Then != nil {
			return req.Then(tx, v)
		}
		return nil
	})
	if err != nil {
		return domain.Verification{}, err
	}

	return s.verifyResult(ctx, target, v, reject)
}

func (s *ChallengeService) verifyResult(ctx context.Context, target Target, v domain.Verification, reject error) (domain.Verification, error) {
	challengeVerificationsTotal.WithLabelValues(string(target.Purpose), verifyOutcome(reject)).Inc()

	if reject != nil {
		slogx.FromContext(ctx).Info("challenge verification rejected",
			slog.String("purpose", string(target.Purpose)),
			slog.String("outcome", verifyOutcome(reject)),
		)
		return domain.Verification{}, reject
	}
	return v, nil
}

func loadTarget(ctx context.Context, tx store.Tx, t Target) (domain.VerificationChallenge, error) {
	if t.ChallengeID != "" {
		c, err := tx.Challenges().GetChallengeByID(ctx, t.ChallengeID)
		if err != nil {
			return domain.VerificationChallenge{}, err
		}
		// A challenge id never answers for another flow.
		if c.Purpose != t.Purpose {
			return domain.VerificationChallenge{}, store.ErrNotFound
		}
		return c, nil
	}
	return tx.Challenges().GetLatestChallenge(ctx, t.Identity, t.Purpose)
}

// matchesSuperseded reports whether code belongs to a challenge that current
// replaced, i.e. the user typed a code from an older email.
func matchesSuperseded(ctx context.Context, tx store.Tx, current domain.VerificationChallenge, code string) (bool, error) {
	all, err := tx.Challenges().ListChallengesByIdentity(ctx, current.Identity)
	if err != nil {
		return false, fmt.Errorf("list challenges: %w", err)
	}
	for _, c := range all {
		if c.ID == current.ID || c.Purpose != current.Purpose || c.State != domain.ChallengeSuperseded {
			continue
		}
		if MatchEmailedCode(c, code) {
			return true, nil
		}
	}
	return false, nil
}
