package jwtx

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oncreesaas/oncree/pkg/cryptox"
)

// AlgorithmEdDSA is the only signing algorithm the auth service issues.
const AlgorithmEdDSA = "EdDSA"

// KeyManager owns the signing keys of an auth instance together with the
// KeySet and Verifier built from them.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// Audience values (aud) that will be validated. Empty means no check.
	Audience []string

	// Leeway tolerated on exp/nbf for clock skew.
	Leeway time.Duration

	// NumKeys is how many ephemeral signing keys to generate. Defaults to 3,
	// capped at 10.
	NumKeys int

	// PrivateKeyPEM, when set, is loaded as the only signing key instead of
	// generating ephemeral ones. Tokens then survive restarts.
	PrivateKeyPEM []byte
}

// NewKeyManager builds a KeyManager from opts. Without PrivateKeyPEM the
// keys only exist in memory, so every token is invalidated on restart.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	var signers []Signer
	if len(opts.PrivateKeyPEM) > 0 {
		s, err := loadSigner(opts.PrivateKeyPEM)
		if err != nil {
			return nil, err
		}
		signers = append(signers, s)
	} else {
		numKeys := opts.NumKeys
		if numKeys <= 0 {
			numKeys = 3
		}
		if numKeys > 10 {
			numKeys = 10
		}

		for i := range numKeys {
			s, err := generateSigner()
			if err != nil {
				return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
			}
			signers = append(signers, s)
		}
	}

	keyset := NewKeySet()
	for _, s := range signers {
		if err := keyset.AddSigner(s); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer %s to keyset: %w", s.KID(), err)
		}
	}

	return &KeyManager{
		Verifier: NewVerifierEdDSA(keyset, opts.Issuer, opts.Audience, opts.Leeway),
		KeySet:   keyset,
		signers:  signers,
	}, nil
}

func generateSigner() (Signer, error) {
	kid, err := generateRandomKeyID()
	if err != nil {
		return nil, err
	}

	pemBytes, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	return NewSignerEdDSA(kid, pemBytes)
}

// loadSigner derives a stable kid from the public key so JWKS consumers keep
// their cache across restarts.
func loadSigner(pemBytes []byte) (Signer, error) {
	s, err := NewSignerEdDSA("", pemBytes)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s.kid = "oncree-" + cryptox.FingerprintToken(string(s.pub))[:16]
	return s, nil
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string { return AlgorithmEdDSA }

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected signer from the available keys.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// Sign signs claims with one of the active keys.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	s := km.GetSigner()
	if s == nil {
		return "", errors.New("jwtx: no signing key available")
	}
	return s.Sign(claims)
}

// generateRandomKeyID creates a random key identifier: "oncree-{128-bit token}".
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate random key ID: %w", err)
	}
	return "oncree-" + token, nil
}
