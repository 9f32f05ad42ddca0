// Package token turns principals into signed access and refresh tokens and
// back. Every verification failure collapses into ErrVerification so callers
// cannot leak which check failed.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/pkg/jwtx"
)

// ErrVerification is returned for malformed, forged, expired, foreign-issuer
// or wrong-kind tokens alike.
var ErrVerification = errors.New("token: verification failed")

// Codec issues and verifies daybook tokens with one KeyManager.
type Codec struct {
	keys       *jwtx.KeyManager
	verifier   *jwtx.Verifier
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec builds a codec. The access TTL must be positive and strictly
// shorter than the refresh TTL.
func NewCodec(keys *jwtx.KeyManager, issuer string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if keys == nil {
		return nil, errors.New("token: key manager is required")
	}
	if issuer == "" {
		return nil, errors.New("token: issuer is required")
	}
	if accessTTL <= 0 {
		return nil, fmt.Errorf("token: access ttl must be positive, got %s", accessTTL)
	}
	if accessTTL >= refreshTTL {
		return nil, fmt.Errorf("token: access ttl %s must be shorter than refresh ttl %s", accessTTL, refreshTTL)
	}

	return &Codec{
		keys:       keys,
		verifier:   keys.Verifier.WithLeeway(0), // past exp means expired
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of c that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	cp.verifier = c.verifier.WithClock(now)
	return &cp
}

// AccessTTL is the lifetime of access tokens issued with a zero ttl.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL is the lifetime of refresh tokens and of their sessions.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue signs a token of kind for p. A zero ttl uses the codec default for
// the kind. Refresh tokens use p.SessionID as their jti, so p.SessionID must
// be set for them.
func (c *Codec) Issue(p domain.Principal, kind domain.TokenKind, ttl time.Duration) (string, error) {
	if p.UserID == "" {
		return "", errors.New("token: principal has no user id")
	}
	if !kind.Valid() {
		return "", fmt.Errorf("token: unknown kind %q", kind)
	}
	if ttl <= 0 {
		ttl = c.accessTTL
		if kind == domain.TokenRefresh {
			ttl = c.refreshTTL
		}
	}

	jti := uuid.NewString()
	if kind == domain.TokenRefresh {
		if p.SessionID == "" {
			return "", errors.New("token: refresh token needs a session id")
		}
		jti = p.SessionID
	}

	now := c.now()
	claims := jwtx.NewClaims(p.UserID, string(p.Role), string(kind), p.SessionID, jti, c.issuer, ttl, now)
	return c.keys.Signer().Sign(claims)
}

// Verify checks raw and returns its principal when it is a valid token of
// kind expect.
func (c *Codec) Verify(raw string, expect domain.TokenKind) (domain.Principal, error) {
	if raw == "" {
		return domain.Principal{}, ErrVerification
	}

	claims, err := c.verifier.Verify(raw)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if err := claims.ValidateKind(string(expect)); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrVerification, jwtx.ErrInvalidClaim)
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrVerification, jwtx.ErrInvalidClaim)
	}

	sid := claims.SID
	if expect == domain.TokenRefresh {
		// The jti is the session for refresh tokens; a disagreeing sid is forged
		// or corrupt.
		if claims.ID == "" || (sid != "" && sid != claims.ID) {
			return domain.Principal{}, fmt.Errorf("%w: %w", ErrVerification, jwtx.ErrInvalidClaim)
		}
		sid = claims.ID
	}

	return domain.Principal{
		UserID:    claims.Subject,
		Role:      role,
		Kind:      expect,
		SessionID: sid,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
