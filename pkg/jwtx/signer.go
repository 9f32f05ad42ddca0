package jwtx

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is anything that can sign daybook claims.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerificationKey is the key a Verifier needs for this signer's tokens:
	// the public key for asymmetric algorithms, the secret for HS256.
	VerificationKey() any

	// PublicJWK returns the JWK to publish, or false for symmetric keys
	// which must never leave the process.
	PublicJWK() (JWK, bool)
}

// NewSignerEdDSA creates an EdDSA signer from a PKCS8 PEM Ed25519 key.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}

// NewSignerES256 creates an ES256 signer from a PKCS8 PEM P-256 key.
func NewSignerES256(kid string, pemKey []byte) (Signer, error) {
	return newES256Signer(kid, pemKey)
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}

// parsePKCS8 decodes a PEM block and parses the PKCS8 key inside it.
func parsePKCS8(pemKey []byte) (any, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (PKCS8 required)", block.Type)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	return key, nil
}

func sign(method jwt.SigningMethod, kid string, claims Claims, key any) (string, error) {
	t := jwt.NewWithClaims(method, claims)
	t.Header["kid"] = kid
	return t.SignedString(key)
}
