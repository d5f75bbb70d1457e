package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, name, type, password_hash, mfa_enabled, totp_secret, totp_enabled, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u           domain.User
		userType    string
		mfaEnabled  sql.NullInt64
		totpSecret  sql.NullString
		totpEnabled sql.NullInt64
		createdAt   int64
		updatedAt   int64
	)

	err := row.Scan(&u.ID, &u.Email, &u.Name, &userType, &u.PasswordHash,
		&mfaEnabled, &totpSecret, &totpEnabled, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Type = domain.AccountType(userType)
	u.MFAEnabled = mapNullNanos(mfaEnabled)
	u.TOTPSecret = mapNullStringPtr(totpSecret)
	u.TOTPEnabled = mapNullNanos(totpEnabled)
	u.CreatedAt = fromNanos(createdAt)
	u.UpdatedAt = fromNanos(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	var totpSecret sql.NullString
	if u.TOTPSecret != nil {
		totpSecret = sql.NullString{String: *u.TOTPSecret, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, domain.NormalizeEmail(u.Email), u.Name, string(u.Type), u.PasswordHash,
		nullNanos(u.MFAEnabled), totpSecret, nullNanos(u.TOTPEnabled),
		toNanos(u.CreatedAt), toNanos(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, toNanos(time.Now()), userID)
}

func (r *usersRepo) SetEmailMFA(ctx context.Context, userID string, enabled bool) error {
	now := toNanos(time.Now())
	if !enabled {
		return r.update(ctx, `UPDATE users SET mfa_enabled = NULL, updated_at = ? WHERE id = ?`, now, userID)
	}
	// Re-enabling keeps the original timestamp.
	return r.update(ctx,
		`UPDATE users SET mfa_enabled = COALESCE(mfa_enabled, ?), updated_at = ? WHERE id = ?`,
		now, now, userID)
}

func (r *usersRepo) SetTOTPSecret(ctx context.Context, userID string, secret string) error {
	return r.update(ctx,
		`UPDATE users SET totp_secret = ?, totp_enabled = NULL, updated_at = ? WHERE id = ?`,
		secret, toNanos(time.Now()), userID)
}

func (r *usersRepo) EnableTOTP(ctx context.Context, userID string) error {
	now := toNanos(time.Now())
	return r.update(ctx,
		`UPDATE users SET totp_enabled = ?, updated_at = ? WHERE id = ? AND totp_secret IS NOT NULL`,
		now, now, userID)
}

func (r *usersRepo) DisableTOTP(ctx context.Context, userID string) error {
	return r.update(ctx,
		`UPDATE users SET totp_secret = NULL, totp_enabled = NULL, updated_at = ? WHERE id = ?`,
		toNanos(time.Now()), userID)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// update runs a single-row UPDATE and reports ErrNotFound when no row matched.
func (r *usersRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
