package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/jwtx"
	"github.com/oncreesaas/oncree/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type verifyMFAInput struct {
	ChallengeID string `json:"challenge_id" validate:"required,uuid4"`
	Code        string `json:"code" validate:"required,otp"`
	Method      string `json:"method" validate:"omitempty,oneof=email totp"`
}

type resendMFAInput struct {
	ChallengeID string `json:"challenge_id" validate:"required,uuid4"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends the same argon2 work as a real check so unknown
// emails cannot be told apart by response time.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = cryptox.HashPassword("oncree-timing-equaliser")
	})
	if dummyHash != "" {
		_ = cryptox.VerifyPassword(password, dummyHash)
	}
}

// LoginService checks credentials and drives the second factor.
type LoginService struct {
	Store      store.Store
	Challenges *ChallengeService
	Tokens     *TokenService

	Now func() time.Time
}

func (s *LoginService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login verifies email and password. Accounts without a second factor get a
// token straight away; the others get a login_mfa challenge mailed.
func (s *LoginService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	if err := validateInput(loginInput{Email: email, Password: password}); err != nil {
		return domain.LoginResult{}, err
	}
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		burnPasswordCheck(password)
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("user_id", u.ID), slog.Any("error", err))
		}
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.LoginResult{}, ErrInvalidCredentials
	}

	if !u.RequiresMFA() {
		tok, err := s.Tokens.Issue(u, []string{jwtx.AMRPassword}, s.now())
		if err != nil {
			return domain.LoginResult{}, err
		}
		loginsTotal.WithLabelValues("success").Inc()
		l.Info("login succeeded", slog.String("user_id", u.ID))
		return domain.LoginResult{Type: u.Type, Token: &tok}, nil
	}

	issued, err := s.Challenges.Issue(ctx, u.Email, domain.PurposeLoginMFA)
	if errors.Is(err, ErrCooldown) {
		// Repeated logins inside the cooldown reuse the code already mailed.
		pending, ok, perr := s.Challenges.Pending(ctx, u.Email, domain.PurposeLoginMFA)
		if perr != nil {
			return domain.LoginResult{}, perr
		}
		if !ok {
			return domain.LoginResult{}, err
		}
		issued, err = pending, nil
	}
	if err != nil {
		return domain.LoginResult{}, err
	}

	loginsTotal.WithLabelValues("mfa_required").Inc()
	return domain.LoginResult{
		Type:      u.Type,
		Challenge: &issued,
		Methods:   u.MFAMethods(),
	}, nil
}

// VerifyMFA completes a login with the code from the email or, when the
// account has confirmed TOTP, a code from the authenticator app. Both count
// against and consume the same challenge.
func (s *LoginService) VerifyMFA(ctx context.Context, challengeID, code string, method domain.MFAMethod) (domain.LoginResult, error) {
	in := verifyMFAInput{ChallengeID: challengeID, Code: code, Method: string(method)}
	if err := validateInput(in); err != nil {
		return domain.LoginResult{}, err
	}
	if method == "" {
		method = domain.MFAMethodEmail
	}

	c, err := s.Challenges.Lookup(ctx, challengeID)
	if err != nil {
		return domain.LoginResult{}, err
	}
	u, err := s.Store.Users().GetUserByEmail(ctx, c.Identity)
	if errors.Is(err, store.ErrNotFound) {
		return domain.LoginResult{}, ErrChallengeNotFound
	}
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	match := MatchEmailedCode
	amrMethod := jwtx.AMROTP
	if method == domain.MFAMethodTOTP {
		if u.TOTPEnabled == nil || u.TOTPSecret == nil {
			return domain.LoginResult{}, validationErr("method", "totp is not enabled for this account")
		}
		secret := *u.TOTPSecret
		match = func(_ domain.VerificationChallenge, code string) bool {
			return totp.Validate(code, secret)
		}
		amrMethod = jwtx.AMRTOTP
	}

	_, err = s.Challenges.Verify(ctx, VerifyRequest{
		Target: ByChallenge(challengeID, domain.PurposeLoginMFA),
		Code:   code,
		Mode:   domain.VerifyConsume,
		Match:  match,
	})
	if err != nil {
		return domain.LoginResult{}, err
	}

	tok, err := s.Tokens.Issue(u, []string{jwtx.AMRPassword, amrMethod, jwtx.AMRMFA}, s.now())
	if err != nil {
		return domain.LoginResult{}, err
	}

	loginsTotal.WithLabelValues("success").Inc()
	slogx.FromContext(ctx).Info("login succeeded",
		slog.String("user_id", u.ID),
		slog.String("mfa_method", string(method)),
	)
	return domain.LoginResult{Type: u.Type, Token: &tok}, nil
}

// ResendMFA mails a fresh code for a login challenge and supersedes the old
// one.
func (s *LoginService) ResendMFA(ctx context.Context, challengeID string) (domain.IssuedChallenge, error) {
	if err := validateInput(resendMFAInput{ChallengeID: challengeID}); err != nil {
		return domain.IssuedChallenge{}, err
	}
	return s.Challenges.Resend(ctx, challengeID, domain.PurposeLoginMFA)
}
