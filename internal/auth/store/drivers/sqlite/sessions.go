package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/sqlite/gen"
)

type sessionsRepo struct {
	q *gen.Queries

	// db is set outside a transaction so Rotate can open its own; nil means
	// q is already bound to a transaction.
	db *sql.DB
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	return mapErr(r.q.CreateSession(ctx, gen.CreateSessionParams{
		ID:        s.ID,
		UserID:    s.UserID,
		TokenHash: s.TokenHash,
		CreatedAt: toMillis(s.CreatedAt),
		ExpiresAt: toMillis(s.ExpiresAt),
	}))
}

func (r *sessionsRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	row, err := r.q.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, mapErr(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) IsRevoked(ctx context.Context, id string) (bool, error) {
	revokedAt, err := r.q.GetSessionRevokedAt(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, mapErr(err)
	}
	return revokedAt.Valid, nil
}

func (r *sessionsRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	n, err := r.q.RevokeSession(ctx, gen.RevokeSessionParams{
		RevokedAt: nullMillis(at),
		ID:        id,
	})
	return affectedOne(n, err)
}

func (r *sessionsRepo) Rotate(ctx context.Context, oldID string, next domain.Session) error {
	if r.db == nil {
		return rotate(ctx, r.q, oldID, next)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := rotate(ctx, r.q.WithTx(tx), oldID, next); err != nil {
		return err
	}
	return mapErr(tx.Commit())
}

// rotate is a compare-and-set: the predecessor is only superseded if nobody
// else got there first. The insert follows in the same transaction.
func rotate(ctx context.Context, q *gen.Queries, oldID string, next domain.Session) error {
	n, err := q.SupersedeSession(ctx, gen.SupersedeSessionParams{
		RevokedAt:  nullMillis(next.CreatedAt),
		ReplacedBy: mapStringNull(next.ID),
		ID:         oldID,
		UserID:     next.UserID,
		ExpiresAt:  toMillis(next.CreatedAt),
	})
	if err != nil {
		return mapErr(err)
	}
	if n != 1 {
		return store.ErrStale
	}

	return mapErr(q.CreateSession(ctx, gen.CreateSessionParams{
		ID:        next.ID,
		UserID:    next.UserID,
		TokenHash: next.TokenHash,
		CreatedAt: toMillis(next.CreatedAt),
		ExpiresAt: toMillis(next.ExpiresAt),
	}))
}

func (r *sessionsRepo) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	n, err := r.q.RevokeUserSessions(ctx, gen.RevokeUserSessionsParams{
		RevokedAt: nullMillis(at),
		UserID:    userID,
	})
	return n, mapErr(err)
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.q.DeleteExpiredSessions(ctx, toMillis(now))
	return n, mapErr(err)
}
