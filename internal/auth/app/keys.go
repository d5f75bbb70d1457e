package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oncreesaas/oncree/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager that signs access tokens.
//
// With AUTH_SIGNING_KEY_FILE set, the Ed25519 key in that PEM file is the
// only signing key and tokens survive restarts. Otherwise NumKeys ephemeral
// keys are generated and every issued token dies with the process.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	}

	if cfg.SigningKeyFile != "" {
		pemBytes, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		opts.PrivateKeyPEM = pemBytes
	}

	keyManager, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	if cfg.SigningKeyFile != "" {
		logger.Info("signing key loaded",
			"algorithm", keyManager.Algorithm(),
			"path", cfg.SigningKeyFile,
			"issuer", cfg.Issuer,
		)
		return keyManager, nil
	}

	logger.Info("generated ephemeral signing keys",
		"algorithm", keyManager.Algorithm(),
		"num_keys", keyManager.NumSigners(),
		"issuer", cfg.Issuer,
	)
	logger.Warn("all existing tokens are now invalid due to key rotation on startup")

	return keyManager, nil
}
