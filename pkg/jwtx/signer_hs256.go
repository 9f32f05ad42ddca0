package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinHS256SecretLen is the shortest accepted HS256 secret (the SHA-256 output
// size).
const MinHS256SecretLen = 32

// HS256Signer signs with HMAC SHA-256 using a process-wide shared secret.
type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHS256SecretLen {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes", MinHS256SecretLen)
	}
	// Copy so later mutation of the caller's slice cannot change the key.
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &HS256Signer{kid: kid, secret: cp}, nil
}

func (s *HS256Signer) Alg() string          { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string          { return s.kid }
func (s *HS256Signer) VerificationKey() any { return s.secret }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	return sign(jwt.SigningMethodHS256, s.kid, claims, s.secret)
}

func (s *HS256Signer) PublicJWK() (JWK, bool) { return JWK{}, false }
