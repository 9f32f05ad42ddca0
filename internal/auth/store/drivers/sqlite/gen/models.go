package gen

import (
	"database/sql"
)

type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	CreatedAt  int64
	ExpiresAt  int64
	RevokedAt  sql.NullInt64
	ReplacedBy sql.NullString
}

type User struct {
	ID                  string
	Email               string
	DisplayName         string
	PasswordHash        string
	Role                string
	SubscriptionTier    string
	ResetTokenHash      sql.NullString
	ResetTokenExpiresAt sql.NullInt64
	CreatedAt           int64
	UpdatedAt           int64
}
