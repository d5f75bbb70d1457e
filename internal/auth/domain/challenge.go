package domain

import "time"

// Purpose scopes a verification challenge to the flow that issued it. A code
// issued for one purpose never satisfies another.
type Purpose string

const (
	PurposePasswordReset Purpose = "password_reset"
	PurposeLoginMFA      Purpose = "login_mfa"
)

func (p Purpose) Valid() bool {
	return p == PurposePasswordReset || p == PurposeLoginMFA
}

// ChallengeState is the stored lifecycle state of a challenge. Only
// ChallengePending ever transitions; every other state is terminal.
type ChallengeState string

const (
	ChallengePending    ChallengeState = "pending"
	ChallengeConsumed   ChallengeState = "consumed"
	ChallengeExpired    ChallengeState = "expired"
	ChallengeLockedOut  ChallengeState = "locked_out"
	ChallengeSuperseded ChallengeState = "superseded"
)

func (s ChallengeState) Terminal() bool { return s != ChallengePending }

// VerificationChallenge is one issued one-time code. The plaintext code is
// never stored, only its keyed hash.
type VerificationChallenge struct {
	ID           string
	Identity     string // normalised email
	Purpose      Purpose
	CodeHash     string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	State        ChallengeState
	AttemptCount int
	VerifiedAt   *time.Time // set by a check-mode verification
	ConsumedAt   *time.Time
	UpdatedAt    time.Time // last state change, drives retention
}

// Evaluate returns the effective state at now. A pending challenge past its
// expiry is expired even if the row has not been swept yet.
func (c VerificationChallenge) Evaluate(now time.Time) ChallengeState {
	if c.State == ChallengePending && now.After(c.ExpiresAt) {
		return ChallengeExpired
	}
	return c.State
}

// AttemptsRemaining is how many wrong codes may still be submitted before
// the challenge locks.
func (c VerificationChallenge) AttemptsRemaining(maxAttempts int) int {
	return max(maxAttempts-c.AttemptCount, 0)
}

// VerifyMode selects what a successful verification does to the challenge.
type VerifyMode int

const (
	// VerifyConsume closes the challenge. The code can never be used again.
	VerifyConsume VerifyMode = iota

	// VerifyCheck records verified_at but leaves the challenge pending, so a
	// follow-up action can still consume it with the same code.
	VerifyCheck
)

func (m VerifyMode) String() string {
	if m == VerifyCheck {
		return "check"
	}
	return "consume"
}

// Verification is the assertion produced by a successful verification.
// Downstream actions (password update, token issuance) require one.
type Verification struct {
	ChallengeID string
	Identity    string
	Purpose     Purpose
	VerifiedAt  time.Time
}

// IssuedChallenge is what issuing hands back to callers. The plaintext code
// only travels to the notifier.
type IssuedChallenge struct {
	ChallengeID string
	Identity    string
	Purpose     Purpose
	ExpiresAt   time.Time
}
