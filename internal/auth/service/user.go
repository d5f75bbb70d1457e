package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/idx"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

// generatedPasswordLength is used for seeded accounts configured without a
// password. Such accounts are meant to go through password reset.
const generatedPasswordLength = 16

type seedUserInput struct {
	Email string             `json:"email" validate:"required,email,max=254"`
	Type  domain.AccountType `json:"type" validate:"required,oneof=admin client consultant comptable rh manager"`
}

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// Seed creates the configured accounts that do not exist yet and returns how
// many were created. Existing accounts are left untouched.
func (s *UserService) Seed(ctx context.Context, data domain.BootstrapData) (int, error) {
	l := slogx.FromContext(ctx)
	created := 0

	for _, su := range data.Users {
		if err := validateInput(seedUserInput{Email: su.Email, Type: su.Type}); err != nil {
			return created, fmt.Errorf("seed %q: %w", su.Email, err)
		}
		email := domain.NormalizeEmail(su.Email)

		_, err := s.Store.Users().GetUserByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, fmt.Errorf("seed lookup: %w", err)
		}

		password := su.Password
		if password == "" {
			password, err = cryptox.GeneratePassword(generatedPasswordLength)
			if err != nil {
				return created, fmt.Errorf("seed password: %w", err)
			}
			l.Warn("seeded account has a generated password, use password reset to sign in",
				slog.String("identity", cryptox.IdentityFingerprint(email)))
		}

		hash, err := cryptox.HashPassword(password)
		if err != nil {
			return created, fmt.Errorf("seed hash: %w", err)
		}

		now := time.Now().UTC()
		u := domain.User{
			ID:           idx.New().String(),
			Email:        email,
			Name:         su.Name,
			Type:         su.Type,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if su.EmailMFA {
			u.MFAEnabled = &now
		}

		if err := s.Store.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seed create: %w", err)
		}
		created++
		l.Info("seeded account", slog.String("user_id", u.ID), slog.String("type", string(u.Type)))
	}

	return created, nil
}
