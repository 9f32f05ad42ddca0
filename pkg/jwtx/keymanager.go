package jwtx

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/daybook/pkg/cryptox"
)

// Supported JWT signing algorithms.
const (
	AlgorithmEdDSA = "EdDSA"
	AlgorithmES256 = "ES256"
	AlgorithmHS256 = "HS256"
)

// hs256KID is the fixed key id for shared secrets. Deriving it from the secret
// would publish a hash of the secret in every token header.
const hs256KID = "daybook-hs256"

// KeyManager owns the active signing key and the KeySet used to verify.
type KeyManager struct {
	Verifier *Verifier
	KeySet   *KeySet

	signer    Signer
	algorithm string
	ephemeral bool
}

// KeyManagerOptions configures a KeyManager.
type KeyManagerOptions struct {
	// Algorithm is one of AlgorithmEdDSA, AlgorithmES256, AlgorithmHS256.
	Algorithm string

	// Issuer is written to and required in every token.
	Issuer string

	// Key is a PKCS8 PEM private key for EdDSA/ES256 or the raw secret for
	// HS256. Nil generates an ephemeral key that dies with the process.
	Key []byte

	// KID overrides the derived key id.
	KID string
}

// NewKeyManager builds a KeyManager from opts.
//
// Instances sharing a key derive the same kid, so tokens minted by one
// instance verify on the others.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	key := opts.Key
	ephemeral := len(key) == 0
	if ephemeral {
		var err error
		key, err = generateKey(opts.Algorithm)
		if err != nil {
			return nil, err
		}
	}

	kid := opts.KID
	if kid == "" {
		var err error
		if kid, err = deriveKID(opts.Algorithm, key); err != nil {
			return nil, err
		}
	}

	var (
		signer Signer
		err    error
	)
	switch opts.Algorithm {
	case AlgorithmEdDSA:
		signer, err = NewSignerEdDSA(kid, key)
	case AlgorithmES256:
		signer, err = NewSignerES256(kid, key)
	case AlgorithmHS256:
		signer, err = NewSignerHS256(kid, key)
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: EdDSA, ES256, HS256)", opts.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	keyset := NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}

	return &KeyManager{
		Verifier:  NewVerifier(keyset, opts.Algorithm, opts.Issuer),
		KeySet:    keyset,
		signer:    signer,
		algorithm: opts.Algorithm,
		ephemeral: ephemeral,
	}, nil
}

func generateKey(algorithm string) ([]byte, error) {
	switch algorithm {
	case AlgorithmEdDSA:
		return cryptox.GenerateEd25519Key()
	case AlgorithmES256:
		return cryptox.GenerateES256Key()
	case AlgorithmHS256:
		return cryptox.GenerateHMACSecret()
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: EdDSA, ES256, HS256)", algorithm)
	}
}

// deriveKID fingerprints the public half of key. The kid is published, so it
// must never be derived from private material.
func deriveKID(algorithm string, key []byte) (string, error) {
	if algorithm == AlgorithmHS256 {
		return hs256KID, nil
	}
	priv, err := parsePKCS8(key)
	if err != nil {
		return "", err
	}
	signer, ok := priv.(crypto.Signer)
	if !ok {
		return "", errors.New("jwtx: private key has no public half")
	}
	der, err := x509.MarshalPKIXPublicKey(signer.Public())
	if err != nil {
		return "", fmt.Errorf("jwtx: marshal public key: %w", err)
	}
	return "daybook-" + cryptox.FingerprintToken(string(der))[:16], nil
}

// Signer returns the active signer.
func (km *KeyManager) Signer() Signer { return km.signer }

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// Ephemeral reports whether the key was generated at startup.
func (km *KeyManager) Ephemeral() bool { return km.ephemeral }

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}
