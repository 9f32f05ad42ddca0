package domain

import (
	"strings"
	"time"
)

type User struct {
	ID               string
	Email            string // stored lower-cased
	DisplayName      string
	PasswordHash     string // argon2id PHC string
	Role             Role
	SubscriptionTier Tier
	ResetTokenHash   string     // fingerprint of the outstanding reset token, "" if none
	ResetTokenExpiry *time.Time // nil when no reset is pending
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Tier is the subscription tier. Billing owns it; the auth core only ever
// downgrades to TierFree.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierPremium:
		return true
	}
	return false
}

// NormalizeEmail trims and lower-cases an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
