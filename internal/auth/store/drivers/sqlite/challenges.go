package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/store"
)

type challengesRepo struct {
	db dbtx
}

const challengeColumns = `id, identity, purpose, code_hash, issued_at, expires_at, state, attempt_count, verified_at, consumed_at, updated_at`

func scanChallenge(row interface{ Scan(...any) error }) (domain.VerificationChallenge, error) {
	var (
		c          domain.VerificationChallenge
		purpose    string
		state      string
		issuedAt   int64
		expiresAt  int64
		verifiedAt sql.NullInt64
		consumedAt sql.NullInt64
		updatedAt  int64
	)

	err := row.Scan(&c.ID, &c.Identity, &purpose, &c.CodeHash, &issuedAt, &expiresAt,
		&state, &c.AttemptCount, &verifiedAt, &consumedAt, &updatedAt)
	if err != nil {
		return domain.VerificationChallenge{}, mapNotFound(err)
	}

	c.Purpose = domain.Purpose(purpose)
	c.State = domain.ChallengeState(state)
	c.IssuedAt = fromNanos(issuedAt)
	c.ExpiresAt = fromNanos(expiresAt)
	c.VerifiedAt = mapNullNanos(verifiedAt)
	c.ConsumedAt = mapNullNanos(consumedAt)
	c.UpdatedAt = fromNanos(updatedAt)
	return c, nil
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.VerificationChallenge) error {
	if c.State == "" {
		c.State = domain.ChallengePending
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.IssuedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_challenges (`+challengeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Identity, string(c.Purpose), c.CodeHash,
		toNanos(c.IssuedAt), toNanos(c.ExpiresAt), string(c.State), c.AttemptCount,
		nullNanos(c.VerifiedAt), nullNanos(c.ConsumedAt), toNanos(c.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallengeByID(ctx context.Context, id string) (domain.VerificationChallenge, error) {
	return scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM verification_challenges WHERE id = ?`, id))
}

func (r *challengesRepo) GetLatestChallenge(ctx context.Context, identity string, purpose domain.Purpose) (domain.VerificationChallenge, error) {
	// rowid breaks ties between challenges issued in the same nanosecond.
	return scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM verification_challenges
		 WHERE identity = ? AND purpose = ?
		 ORDER BY issued_at DESC, rowid DESC
		 LIMIT 1`,
		identity, string(purpose)))
}

func (r *challengesRepo) ListChallengesByIdentity(ctx context.Context, identity string) ([]domain.VerificationChallenge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+challengeColumns+` FROM verification_challenges
		 WHERE identity = ?
		 ORDER BY issued_at DESC, rowid DESC`,
		identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VerificationChallenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *challengesRepo) SupersedePending(ctx context.Context, identity string, purpose domain.Purpose, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verification_challenges SET state = 'superseded', updated_at = ?
		 WHERE identity = ? AND purpose = ? AND state = 'pending'`,
		toNanos(at), identity, string(purpose))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *challengesRepo) IncrementAttempts(ctx context.Context, id string, at time.Time) (domain.VerificationChallenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx,
		`UPDATE verification_challenges SET attempt_count = attempt_count + 1, updated_at = ?
		 WHERE id = ? AND state = 'pending'
		 RETURNING `+challengeColumns,
		toNanos(at), id))
	if errors.Is(err, store.ErrNotFound) {
		return domain.VerificationChallenge{}, store.ErrConflict
	}
	return c, err
}

func (r *challengesRepo) TransitionState(ctx context.Context, id string, from, to domain.ChallengeState, at time.Time) error {
	var consumedAt sql.NullInt64
	if to == domain.ChallengeConsumed {
		consumedAt = sql.NullInt64{Int64: toNanos(at), Valid: true}
	}

	return affected(r.db.ExecContext(ctx,
		`UPDATE verification_challenges
		 SET state = ?, consumed_at = COALESCE(?, consumed_at), updated_at = ?
		 WHERE id = ? AND state = ?`,
		string(to), consumedAt, toNanos(at), id, string(from)))
}

func (r *challengesRepo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return affected(r.db.ExecContext(ctx,
		`UPDATE verification_challenges SET verified_at = ?, updated_at = ?
		 WHERE id = ? AND state = 'pending'`,
		toNanos(at), toNanos(at), id))
}

func (r *challengesRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verification_challenges SET state = 'expired', updated_at = ?
		 WHERE state = 'pending' AND expires_at < ?`,
		toNanos(now), toNanos(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *challengesRepo) DeleteRetired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_challenges WHERE state != 'pending' AND updated_at < ?`,
		toNanos(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
