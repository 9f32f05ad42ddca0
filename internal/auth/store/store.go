package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStale is returned by conditional writes whose precondition no longer
	// holds, e.g. rotating a session another request already rotated.
	ErrStale = errors.New("store: stale")

	// ErrUnavailable wraps backend I/O failures (connection refused, timeouts).
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories, so a transaction hands out the same repos bound to
// the transaction and nesting is impossible by construction.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when it returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the backends are reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the user directory.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. A taken email gives ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	UpdateSubscriptionTier(ctx context.Context, userID string, tier domain.Tier) error
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetResetToken stores the fingerprint of a new reset token, replacing
	// any outstanding one.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ConsumeResetToken clears a reset token that matches hash and has not
	// expired at now, returning its user. It succeeds at most once per token;
	// otherwise ErrNotFound.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)

	// ClearExpiredResetTokens is housekeeping.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	IsEmpty(ctx context.Context) (bool, error)
}

// Sessions records refresh sessions.
type Sessions interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)

	// IsRevoked is true for revoked sessions and for ids the store does not
	// know, so a purged session can never be mistaken for a live one.
	IsRevoked(ctx context.Context, id string) (bool, error)

	// Revoke tombstones a session. Revoking twice is not an error.
	Revoke(ctx context.Context, id string, at time.Time) error

	// Rotate revokes oldID and records next as one atomic unit. oldID must
	// belong to next.UserID, be unrevoked and unexpired at next.CreatedAt;
	// otherwise nothing is written and ErrStale is returned.
	Rotate(ctx context.Context, oldID string, next domain.Session) error

	// RevokeAllForUser tombstones every live session of a user.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)

	// DeleteExpired removes sessions that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
