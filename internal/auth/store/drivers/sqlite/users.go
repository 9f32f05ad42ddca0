package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return mapErr(r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:               u.ID,
		Email:            domain.NormalizeEmail(u.Email),
		DisplayName:      u.DisplayName,
		PasswordHash:     u.PasswordHash,
		Role:             string(u.Role),
		SubscriptionTier: string(u.SubscriptionTier),
		CreatedAt:        toMillis(created),
		UpdatedAt:        toMillis(created),
	}))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	n, err := r.q.UpdateUserRole(ctx, gen.UpdateUserRoleParams{
		Role:      string(role),
		UpdatedAt: toMillis(time.Now()),
		ID:        userID,
	})
	return affectedOne(n, err)
}

func (r *usersRepo) UpdateSubscriptionTier(ctx context.Context, userID string, tier domain.Tier) error {
	n, err := r.q.UpdateUserSubscriptionTier(ctx, gen.UpdateUserSubscriptionTierParams{
		SubscriptionTier: string(tier),
		UpdatedAt:        toMillis(time.Now()),
		ID:               userID,
	})
	return affectedOne(n, err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, gen.UpdateUserPasswordHashParams{
		PasswordHash: newHash,
		UpdatedAt:    toMillis(time.Now()),
		ID:           userID,
	})
	return affectedOne(n, err)
}

func (r *usersRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	n, err := r.q.SetUserResetToken(ctx, gen.SetUserResetTokenParams{
		ResetTokenHash:      mapStringNull(tokenHash),
		ResetTokenExpiresAt: nullMillis(expiresAt),
		UpdatedAt:           toMillis(time.Now()),
		ID:                  userID,
	})
	return affectedOne(n, err)
}

func (r *usersRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	if tokenHash == "" {
		return "", store.ErrNotFound
	}
	id, err := r.q.ConsumeUserResetToken(ctx, gen.ConsumeUserResetTokenParams{
		UpdatedAt:           toMillis(now),
		ResetTokenHash:      mapStringNull(tokenHash),
		ResetTokenExpiresAt: nullMillis(now),
	})
	if err != nil {
		return "", mapErr(err)
	}
	return id, nil
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.q.ClearExpiredResetTokens(ctx, nullMillis(now))
	return n, mapErr(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, mapErr(err)
	}
	return count == 0, nil
}

// affectedOne turns a zero row update into ErrNotFound.
func affectedOne(n int64, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

