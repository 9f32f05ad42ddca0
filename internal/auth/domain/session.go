package domain

import "time"

// Session is the server side record of one refresh token. Its ID is the
// refresh token's jti.
type Session struct {
	ID         string
	UserID     string
	TokenHash  string // fingerprint of the refresh token
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy string // successor after rotation, "" otherwise
}

// Live reports whether the session may still authorize a refresh at now.
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
