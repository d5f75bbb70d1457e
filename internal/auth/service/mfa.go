package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidTOTPCode    = errors.New("invalid_totp_code")
	ErrTOTPNotEnrolled    = errors.New("totp_not_enrolled")
	ErrTOTPAlreadyEnabled = errors.New("totp_already_enabled")
)

type totpCodeInput struct {
	Code string `json:"code" validate:"required,otp"`
}

// MFAService manages an account's second factors.
type MFAService struct {
	Store  store.Store
	Issuer string // shown by authenticator apps, e.g. "OncreeSaaS"
}

// SetEmailMFA turns the emailed login code on or off.
func (s *MFAService) SetEmailMFA(ctx context.Context, userID string, enabled bool) (domain.User, error) {
	if err := s.Store.Users().SetEmailMFA(ctx, userID, enabled); err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByID(ctx, userID)
}

// EnrollTOTP generates a TOTP secret for the user. It is not used for login
// until ConfirmTOTP succeeds. Enrolling again before confirming replaces the
// pending secret.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID string) (domain.MFAEnrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollment{}, err
	}
	if u.TOTPEnabled != nil {
		return domain.MFAEnrollment{}, ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Users().SetTOTPSecret(ctx, userID, key.Secret()); err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return domain.MFAEnrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: u.Email,
	}, nil
}

// ConfirmTOTP checks a code from the freshly enrolled secret and enables it.
func (s *MFAService) ConfirmTOTP(ctx context.Context, userID, code string) error {
	if err := validateInput(totpCodeInput{Code: code}); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return ErrTOTPNotEnrolled
	}
	if u.TOTPEnabled != nil {
		return ErrTOTPAlreadyEnabled
	}
	if !totp.Validate(code, *u.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().EnableTOTP(ctx, userID)
}

// DisableTOTP removes the authenticator after checking a current code.
func (s *MFAService) DisableTOTP(ctx context.Context, userID, code string) error {
	if err := validateInput(totpCodeInput{Code: code}); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TOTPEnabled == nil || u.TOTPSecret == nil {
		return ErrTOTPNotEnrolled
	}
	if !totp.Validate(code, *u.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().DisableTOTP(ctx, userID)
}
