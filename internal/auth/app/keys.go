package app

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/daybook/pkg/jwtx"
)

// InitAuthKeys builds the signing material for the configured algorithm.
//
// Key sources, in order:
//   - AUTH_SIGNING_SECRET (HS256 only)
//   - AUTH_SIGNING_KEY_FILE: a PKCS8 PEM private key for EdDSA/ES256, or the
//     raw secret for HS256
//   - nothing: an ephemeral key is generated. Every token dies with the
//     process and instances cannot verify each other's tokens.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing key loaded",
		"algorithm", km.Algorithm(),
		"kid", km.Signer().KID(),
		"issuer", cfg.Issuer,
		"ephemeral", km.Ephemeral(),
	)
	if km.Ephemeral() {
		logger.Warn("using an ephemeral signing key; all sessions end on restart")
	}

	return km, nil
}

func signingKey(cfg Config) ([]byte, error) {
	if cfg.SigningSecret != "" {
		return []byte(cfg.SigningSecret), nil
	}
	if cfg.SigningKeyFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Clean(cfg.SigningKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	if cfg.Algorithm == jwtx.AlgorithmHS256 {
		// Secrets are usually written with a trailing newline.
		data = bytes.TrimSpace(data)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("signing key file %s is empty", cfg.SigningKeyFile)
	}
	return data, nil
}
