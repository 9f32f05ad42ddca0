package gen

import (
	"context"
	"database/sql"
)

const createSession = `-- name: CreateSession :exec
INSERT INTO sessions (id, user_id, token_hash, created_at, expires_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateSessionParams struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt int64
	ExpiresAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.UserID,
		arg.TokenHash,
		arg.CreatedAt,
		arg.ExpiresAt,
	)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
DELETE FROM sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, expiresAt int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, expiresAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSession = `-- name: GetSession :one
SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, replaced_by
FROM sessions
WHERE id = ?
`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, id)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TokenHash,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.RevokedAt,
		&i.ReplacedBy,
	)
	return i, err
}

const getSessionRevokedAt = `-- name: GetSessionRevokedAt :one
SELECT revoked_at FROM sessions WHERE id = ?
`

func (q *Queries) GetSessionRevokedAt(ctx context.Context, id string) (sql.NullInt64, error) {
	row := q.db.QueryRowContext(ctx, getSessionRevokedAt, id)
	var revokedAt sql.NullInt64
	err := row.Scan(&revokedAt)
	return revokedAt, err
}

const revokeSession = `-- name: RevokeSession :execrows
UPDATE sessions
SET revoked_at = COALESCE(revoked_at, ?)
WHERE id = ?
`

type RevokeSessionParams struct {
	RevokedAt sql.NullInt64
	ID        string
}

func (q *Queries) RevokeSession(ctx context.Context, arg RevokeSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, revokeSession, arg.RevokedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const revokeUserSessions = `-- name: RevokeUserSessions :execrows
UPDATE sessions
SET revoked_at = ?
WHERE user_id = ? AND revoked_at IS NULL
`

type RevokeUserSessionsParams struct {
	RevokedAt sql.NullInt64
	UserID    string
}

func (q *Queries) RevokeUserSessions(ctx context.Context, arg RevokeUserSessionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, revokeUserSessions, arg.RevokedAt, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const supersedeSession = `-- name: SupersedeSession :execrows
UPDATE sessions
SET revoked_at = ?, replaced_by = ?
WHERE id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?
`

type SupersedeSessionParams struct {
	RevokedAt  sql.NullInt64
	ReplacedBy sql.NullString
	ID         string
	UserID     string
	ExpiresAt  int64
}

func (q *Queries) SupersedeSession(ctx context.Context, arg SupersedeSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, supersedeSession,
		arg.RevokedAt,
		arg.ReplacedBy,
		arg.ID,
		arg.UserID,
		arg.ExpiresAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
