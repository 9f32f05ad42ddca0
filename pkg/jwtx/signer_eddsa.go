package jwtx

import (
	"crypto/ed25519"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSASigner signs with Ed25519.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

func newEdDSASigner(kid string, pemKey []byte) (*EdDSASigner, error) {
	priv, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an Ed25519 private key")
	}
	return &EdDSASigner{
		kid: kid,
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

func (s *EdDSASigner) Alg() string          { return jwt.SigningMethodEdDSA.Alg() }
func (s *EdDSASigner) KID() string          { return s.kid }
func (s *EdDSASigner) VerificationKey() any { return s.pub }

func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	return sign(jwt.SigningMethodEdDSA, s.kid, claims, s.key)
}

func (s *EdDSASigner) PublicJWK() (JWK, bool) {
	return NewEd25519JWK(s.kid, "sig", s.Alg(), s.pub), true
}
