package domain

import "time"

// TokenKind separates access tokens from refresh tokens. The two share a key,
// so the kind claim is what stops one being used as the other.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// Principal is the verified content of a token. It is never persisted.
type Principal struct {
	UserID    string
	Role      Role // role at issue time; a hint, not authority
	Kind      TokenKind
	SessionID string // refresh session the token belongs to
	IssuedAt  time.Time
	ExpiresAt time.Time
}
