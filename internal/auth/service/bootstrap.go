package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/pkg/cryptox"
	"github.com/aussiebroadwan/daybook/pkg/idx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

var (
	ErrBootstrapIncomplete = errors.New("bootstrap needs an admin email and password")
	ErrBootstrapFailed     = errors.New("failed to create admin user")
)

// BootstrapService seeds the first admin into an empty directory.
type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, directoryErr(err)
	}
	return !empty, nil
}

// EnsureAdmin creates the admin described by req when no user exists yet.
// It reports whether an account was created; a populated directory is left
// untouched.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, req domain.BootstrapData) (bool, error) {
	l := slogx.FromContext(ctx)

	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return false, err
	}
	if bootstrapped {
		return false, nil
	}

	email := domain.NormalizeEmail(req.AdminEmail)
	if email == "" || req.AdminPassword == "" {
		return false, ErrBootstrapIncomplete
	}
	if len(req.AdminPassword) < MinPasswordLen {
		return false, ErrWeakPassword
	}

	hash, err := s.Hasher.Hash(req.AdminPassword)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return false, ErrBootstrapFailed
	}

	name := req.AdminDisplayName
	if name == "" {
		name = "Administrator"
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:               idx.New().String(),
		Email:            email,
		DisplayName:      name,
		PasswordHash:     hash,
		Role:             domain.RoleAdmin,
		SubscriptionTier: domain.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-check inside the transaction so two instances starting together
		// cannot both seed an admin.
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return store.ErrAlreadyExists
		}
		return tx.Users().CreateUser(ctx, admin)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		l.Error("failed to create admin user", slog.Any("error", err))
		return false, ErrBootstrapFailed
	}

	l.Info("bootstrapped admin user", slog.String("admin_user_id", admin.ID))
	return true, nil
}
