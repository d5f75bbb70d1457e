package service

import (
	"fmt"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/pkg/idx"
	"github.com/oncreesaas/oncree/pkg/jwtx"
)

// TokenService mints access tokens for completed logins.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
}

func (s *TokenService) ttl() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

// Issue signs an access token for u. Each login starts a new session id.
func (s *TokenService) Issue(u domain.User, amr []string, now time.Time) (domain.AccessToken, error) {
	claims := jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject:     u.ID,
		SessionID:   idx.New().String(),
		Email:       u.Email,
		AccountType: string(u.Type),
		AMR:         amr,
		Issuer:      s.Issuer,
		Audience:    s.Audience,
		TTL:         s.ttl(),
		Now:         now,
	})

	// The KeyManager spreads signing across its active keys.
	token, err := s.KeyManager.Sign(claims)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.AccessToken{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Type:      u.Type,
		AMR:       amr,
	}, nil
}
