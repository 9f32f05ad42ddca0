package gen

import (
	"context"
	"database/sql"
)

const clearExpiredResetTokens = `-- name: ClearExpiredResetTokens :execrows
UPDATE users
SET reset_token_hash = NULL, reset_token_expires_at = NULL
WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= ?
`

func (q *Queries) ClearExpiredResetTokens(ctx context.Context, now sql.NullInt64) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearExpiredResetTokens, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const consumeUserResetToken = `-- name: ConsumeUserResetToken :one
UPDATE users
SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = ?
WHERE reset_token_hash = ? AND reset_token_expires_at > ?
RETURNING id
`

type ConsumeUserResetTokenParams struct {
	UpdatedAt           int64
	ResetTokenHash      sql.NullString
	ResetTokenExpiresAt sql.NullInt64
}

func (q *Queries) ConsumeUserResetToken(ctx context.Context, arg ConsumeUserResetTokenParams) (string, error) {
	row := q.db.QueryRowContext(ctx, consumeUserResetToken, arg.UpdatedAt, arg.ResetTokenHash, arg.ResetTokenExpiresAt)
	var id string
	err := row.Scan(&id)
	return id, err
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users
`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, email, display_name, password_hash, role, subscription_tier, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateUserParams struct {
	ID               string
	Email            string
	DisplayName      string
	PasswordHash     string
	Role             string
	SubscriptionTier string
	CreatedAt        int64
	UpdatedAt        int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.Email,
		arg.DisplayName,
		arg.PasswordHash,
		arg.Role,
		arg.SubscriptionTier,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, display_name, password_hash, role, subscription_tier,
       reset_token_hash, reset_token_expires_at, created_at, updated_at
FROM users
WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.DisplayName,
		&i.PasswordHash,
		&i.Role,
		&i.SubscriptionTier,
		&i.ResetTokenHash,
		&i.ResetTokenExpiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, display_name, password_hash, role, subscription_tier,
       reset_token_hash, reset_token_expires_at, created_at, updated_at
FROM users
WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.DisplayName,
		&i.PasswordHash,
		&i.Role,
		&i.SubscriptionTier,
		&i.ResetTokenHash,
		&i.ResetTokenExpiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const setUserResetToken = `-- name: SetUserResetToken :execrows
UPDATE users
SET reset_token_hash = ?, reset_token_expires_at = ?, updated_at = ?
WHERE id = ?
`

type SetUserResetTokenParams struct {
	ResetTokenHash      sql.NullString
	ResetTokenExpiresAt sql.NullInt64
	UpdatedAt           int64
	ID                  string
}

func (q *Queries) SetUserResetToken(ctx context.Context, arg SetUserResetTokenParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setUserResetToken,
		arg.ResetTokenHash,
		arg.ResetTokenExpiresAt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateUserPasswordHash = `-- name: UpdateUserPasswordHash :execrows
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
`

type UpdateUserPasswordHashParams struct {
	PasswordHash string
	UpdatedAt    int64
	ID           string
}

func (q *Queries) UpdateUserPasswordHash(ctx context.Context, arg UpdateUserPasswordHashParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserPasswordHash, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateUserRole = `-- name: UpdateUserRole :execrows
UPDATE users SET role = ?, updated_at = ? WHERE id = ?
`

type UpdateUserRoleParams struct {
	Role      string
	UpdatedAt int64
	ID        string
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserRole, arg.Role, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateUserSubscriptionTier = `-- name: UpdateUserSubscriptionTier :execrows
UPDATE users SET subscription_tier = ?, updated_at = ? WHERE id = ?
`

type UpdateUserSubscriptionTierParams struct {
	SubscriptionTier string
	UpdatedAt        int64
	ID               string
}

func (q *Queries) UpdateUserSubscriptionTier(ctx context.Context, arg UpdateUserSubscriptionTierParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserSubscriptionTier, arg.SubscriptionTier, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
