package store

import (
	"context"
	"errors"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional updates whose precondition no
	// longer holds, e.g. a challenge that left the pending state meanwhile.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories are exposed as methods so a Tx-scoped store can hand out
// the same repos bound to the transaction, which stops nested transactions.
type Store interface {
	Users() Users
	Challenges() Challenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetEmailMFA toggles the emailed second factor.
	SetEmailMFA(ctx context.Context, userID string, enabled bool) error

	// SetTOTPSecret stores an unconfirmed TOTP secret, clearing any previous
	// confirmation.
	SetTOTPSecret(ctx context.Context, userID string, secret string) error

	// EnableTOTP confirms the stored TOTP secret.
	EnableTOTP(ctx context.Context, userID string) error

	// DisableTOTP clears both the secret and its confirmation.
	DisableTOTP(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Challenges interface {
	CreateChallenge(ctx context.Context, c domain.VerificationChallenge) error

	GetChallengeByID(ctx context.Context, id string) (domain.VerificationChallenge, error)

	// GetLatestChallenge returns the most recently issued challenge for the
	// identity and purpose, whatever its state.
	GetLatestChallenge(ctx context.Context, identity string, purpose domain.Purpose) (domain.VerificationChallenge, error)

	// ListChallengesByIdentity returns every retained challenge for the
	// identity across purposes, newest first.
	ListChallengesByIdentity(ctx context.Context, identity string) ([]domain.VerificationChallenge, error)

	// SupersedePending moves every pending challenge for (identity, purpose)
	// to superseded and reports how many rows changed.
	SupersedePending(ctx context.Context, identity string, purpose domain.Purpose, at time.Time) (int64, error)

	// IncrementAttempts bumps attempt_count on a pending challenge and
	// returns the updated row. ErrConflict if it is no longer pending.
	IncrementAttempts(ctx context.Context, id string, at time.Time) (domain.VerificationChallenge, error)

	// TransitionState moves a challenge from one state to another. The
	// consumed state also stamps consumed_at. ErrConflict if the row is not
	// in state from.
	TransitionState(ctx context.Context, id string, from, to domain.ChallengeState, at time.Time) error

	// MarkVerified stamps verified_at on a pending challenge.
	MarkVerified(ctx context.Context, id string, at time.Time) error

	// ExpireOverdue marks pending challenges past expires_at as expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// DeleteRetired removes non-pending challenges last changed before cutoff.
	DeleteRetired(ctx context.Context, before time.Time) (int64, error)
}
