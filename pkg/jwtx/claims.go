package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "typ" claim. Access and refresh tokens share one
// signing key so the kind is the only thing keeping them apart.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims are the daybook token claims.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the directory role at the time of issue ("user", "admin").
	// Treat it as a hint: admin gating re-reads the directory.
	Role string `json:"role"`

	// Kind is KindAccess or KindRefresh.
	Kind string `json:"typ"`

	// SID is the refresh session the token belongs to. For refresh tokens it
	// equals the jti.
	SID string `json:"sid,omitempty"`
}

// NewClaims builds claims valid from now for ttl.
func NewClaims(subject, role, kind, sid, jti, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Role: role,
		Kind: kind,
		SID:  sid,
	}
}

// ValidateIssuer checks the issuer matches expected. Empty expected skips it.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry checks exp and nbf against now with the given leeway for
// clock skew. A missing exp is an error: every daybook token expires.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateKind checks the typ claim.
func (c *Claims) ValidateKind(expected string) error {
	if c.Kind != expected {
		return ErrKind
	}
	return nil
}
