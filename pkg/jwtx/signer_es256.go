package jwtx

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ES256Signer signs with ECDSA P-256 and SHA-256.
type ES256Signer struct {
	kid string
	key *ecdsa.PrivateKey
}

func newES256Signer(kid string, pemKey []byte) (*ES256Signer, error) {
	priv, err := parsePKCS8(pemKey)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an ECDSA private key")
	}
	if name := key.Curve.Params().Name; name != "P-256" {
		return nil, fmt.Errorf("jwtx: expected P-256 curve, got %s", name)
	}
	return &ES256Signer{kid: kid, key: key}, nil
}

func (s *ES256Signer) Alg() string          { return jwt.SigningMethodES256.Alg() }
func (s *ES256Signer) KID() string          { return s.kid }
func (s *ES256Signer) VerificationKey() any { return &s.key.PublicKey }

func (s *ES256Signer) Sign(claims Claims) (string, error) {
	return sign(jwt.SigningMethodES256, s.kid, claims, s.key)
}

func (s *ES256Signer) PublicJWK() (JWK, bool) {
	return NewES256JWK(s.kid, "sig", s.Alg(), &s.key.PublicKey), true
}
