package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet maps key ids to verification keys. Reads vastly outnumber writes so
// it sits behind an RWMutex and verification never blocks on another verify.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]any // kid: ed25519.PublicKey | *ecdsa.PublicKey | []byte
	jwks JWKS
}

func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]any)}
}

// AddSigner registers the signer's verification key, and its public JWK when
// it has one.
func (k *KeySet) AddSigner(s Signer) error {
	if s.KID() == "" {
		return errors.New("jwtx: signer has empty kid")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.keys[s.KID()]; exists {
		return errors.New("jwtx: duplicate kid " + s.KID())
	}
	k.keys[s.KID()] = s.VerificationKey()
	if jwk, ok := s.PublicJWK(); ok {
		k.jwks.Keys = append(k.jwks.Keys, jwk)
	}
	return nil
}

// AddJWK registers a public key published elsewhere.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys[j.Kid] = pub
	k.jwks.Keys = append(k.jwks.Keys, j)
	return nil
}

// Get returns the verification key for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if key, ok := k.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a copy of the publishable keys.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := JWKS{Keys: make([]JWK, len(k.jwks.Keys))}
	copy(out.Keys, k.jwks.Keys)
	return out
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}
