package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

type sendResetCodeInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type verifyResetCodeInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"required,otp"`
}

type resetPasswordInput struct {
	Email                string `json:"email" validate:"required,email,max=254"`
	Code                 string `json:"code" validate:"required,otp"`
	Password             string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// PasswordService runs the emailed-code password recovery flow.
type PasswordService struct {
	Store      store.Store
	Challenges *ChallengeService
}

// SendResetCode mails a reset code when the account exists. Unknown emails
// get the same outcome, cooldown included, so the endpoint does not reveal
// which addresses are registered.
func (s *PasswordService) SendResetCode(ctx context.Context, email string) error {
	if err := validateInput(sendResetCodeInput{Email: email}); err != nil {
		return err
	}
	email = domain.NormalizeEmail(email)

	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Info("password reset requested for unknown account",
			slog.String("identity", cryptox.IdentityFingerprint(email)))
		return s.Challenges.ReserveCooldown(ctx, email, domain.PurposePasswordReset)
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	_, err = s.Challenges.Issue(ctx, email, domain.PurposePasswordReset)
	return err
}

// VerifyResetCode checks a code without using it up, so the client can move
// on to the new-password form and submit the same code again.
func (s *PasswordService) VerifyResetCode(ctx context.Context, email, code string) error {
	if err := validateInput(verifyResetCodeInput{Email: email, Code: code}); err != nil {
		return err
	}

	_, err := s.Challenges.Verify(ctx, VerifyRequest{
		Target: ByIdentity(email, domain.PurposePasswordReset),
		Code:   code,
		Mode:   domain.VerifyCheck,
	})
	return err
}

// ResetPassword consumes the code and stores the new password hash in the
// same transaction.
func (s *PasswordService) ResetPassword(ctx context.Context, email, code, password, confirmation string) error {
	in := resetPasswordInput{
		Email:                email,
		Code:                 code,
		Password:             password,
		PasswordConfirmation: confirmation,
	}
	if err := validateInput(in); err != nil {
		return err
	}

	// Hash before taking the challenge lock, argon2 is slow on purpose.
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	v, err := s.Challenges.Verify(ctx, VerifyRequest{
		Target: ByIdentity(email, domain.PurposePasswordReset),
		Code:   code,
		Mode:   domain.VerifyConsume,
		Then: func(tx store.Tx, v domain.Verification) error {
			u, err := tx.Users().GetUserByEmail(ctx, v.Identity)
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			return tx.Users().UpdatePasswordHash(ctx, u.ID, hash)
		},
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset",
		slog.String("identity", cryptox.IdentityFingerprint(v.Identity)),
		slog.String("challenge_id", v.ChallengeID),
	)
	return nil
}
