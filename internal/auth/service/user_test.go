package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/pkg/idx"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)

	u, err := e.users.Register(ctx, " New.User@Example.com ", testPassword, "")
	require.NoError(t, err)
	require.Equal(t, "new.user@example.com", u.Email)
	require.Equal(t, "new.user", u.DisplayName)
	require.Equal(t, domain.RoleUser, u.Role)
	require.Equal(t, domain.TierFree, u.SubscriptionTier)
	require.NotEqual(t, testPassword, u.PasswordHash)

	_, err = e.users.Register(ctx, "new.user@example.com", testPassword, "Again")
	require.ErrorIs(t, err, ErrEmailTaken)

	tests := []struct {
		name, email, password string
		want                  error
	}{
		{"bad email", "not-an-email", testPassword, ErrInvalidInput},
		{"display form email", "Ada <ada@example.com>", testPassword, ErrInvalidInput},
		{"short password", "short@example.com", "1234567", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.users.Register(ctx, tt.email, tt.password, "")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetRoleAndCancelSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "ada@example.com", domain.RoleUser)

	require.NoError(t, e.users.SetRole(ctx, u.ID, domain.RoleAdmin))
	require.ErrorIs(t, e.users.SetRole(ctx, u.ID, domain.Role("root")), ErrInvalidInput)
	require.NoError(t, e.users.CancelSubscription(ctx, u.ID))

	got, err := e.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.Equal(t, domain.TierFree, got.SubscriptionTier)

	missing := idx.New().String()
	require.ErrorIs(t, e.users.SetRole(ctx, missing, domain.RoleUser), ErrNotFound)
	require.ErrorIs(t, e.users.CancelSubscription(ctx, missing), ErrNotFound)
	_, err = e.users.GetUserByID(ctx, missing)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	b := &BootstrapService{Store: e.store, Hasher: e.hasher}

	_, err := b.EnsureAdmin(ctx, domain.BootstrapData{})
	require.ErrorIs(t, err, ErrBootstrapIncomplete)

	created, err := b.EnsureAdmin(ctx, domain.BootstrapData{AdminEmail: "Root@Example.com", AdminPassword: testPassword})
	require.NoError(t, err)
	require.True(t, created)

	admin, err := e.store.Users().GetUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)

	created, err = b.EnsureAdmin(ctx, domain.BootstrapData{AdminEmail: "other@example.com", AdminPassword: testPassword})
	require.NoError(t, err)
	require.False(t, created)

	bootstrapped, err := b.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, bootstrapped)
}

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	u := e.createUser(t, "ada@example.com", domain.RoleUser)
	pair := e.login(t, u)

	require.NoError(t, e.store.Users().SetResetToken(ctx, u.ID, "fp", time.Now().Add(time.Hour)))

	h := NewHousekeepingService(e.store, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, h.Interval)

	// Nothing is expired yet.
	h.Cleanup(ctx)
	_, err := e.tokens.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)

	h.Now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	h.Cleanup(ctx)

	stored, err := e.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, stored.ResetTokenHash)
	require.Nil(t, stored.ResetTokenExpiry)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	h := NewHousekeepingService(e.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Millisecond)
	h.Start()
	time.Sleep(5 * time.Millisecond)
	h.Stop()
}
