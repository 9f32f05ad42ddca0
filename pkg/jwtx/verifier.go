package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrKind         = errors.New("jwtx: token kind mismatch")
)

// DefaultLeeway absorbs clock skew between instances.
const DefaultLeeway = 5 * time.Second

// Verifier checks signature, algorithm, issuer and validity window of a
// token. It does not check the kind; callers know which kind they expect.
type Verifier struct {
	keys   *KeySet
	alg    string
	issuer string
	leeway time.Duration
	now    func() time.Time
}

func NewVerifier(keys *KeySet, alg, issuer string) *Verifier {
	return &Verifier{
		keys:   keys,
		alg:    alg,
		issuer: issuer,
		leeway: DefaultLeeway,
		now:    time.Now,
	}
}

// WithClock returns a copy of v that reads time from now.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// WithLeeway returns a copy of v with a different skew allowance.
func (v *Verifier) WithLeeway(d time.Duration) *Verifier {
	cp := *v
	cp.leeway = d
	return &cp
}

// Verify parses token and returns its claims when every check passes.
func (v *Verifier) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, v.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID):
			return Claims{}, ErrUnknownKID
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, ErrMalformed
		}
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.now(), v.leeway); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrUnknownKID
	}
	key, err := v.keys.Get(kid)
	if err != nil {
		return nil, ErrUnknownKID
	}

	// Guard against a kid that points at a key of another family.
	switch v.alg {
	case AlgorithmEdDSA:
		if _, ok := key.(ed25519.PublicKey); !ok {
			return nil, ErrUnknownKID
		}
	case AlgorithmES256:
		if _, ok := key.(*ecdsa.PublicKey); !ok {
			return nil, ErrUnknownKID
		}
	case AlgorithmHS256:
		if _, ok := key.([]byte); !ok {
			return nil, ErrUnknownKID
		}
	}
	return key, nil
}
