package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/daybook/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:               idx.New().String(),
		Email:            email,
		DisplayName:      "Ada",
		PasswordHash:     "$argon2id$stub",
		Role:             domain.RoleUser,
		SubscriptionTier: domain.TierPro,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func newSession(userID string, now time.Time, ttl time.Duration) domain.Session {
	return domain.Session{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: "hash-" + idx.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "Ada@Example.com")

	got, err := s.Users().GetUserByEmail(ctx, "ada@EXAMPLE.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "ada@example.com", got.Email)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Equal(t, domain.TierPro, got.SubscriptionTier)
	require.Nil(t, got.ResetTokenExpiry)

	err = s.Users().CreateUser(ctx, domain.User{ID: idx.New().String(), Email: "ada@example.com", PasswordHash: "x", Role: domain.RoleUser, SubscriptionTier: domain.TierFree})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.NoError(t, s.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin))
	require.NoError(t, s.Users().UpdateSubscriptionTier(ctx, u.ID, domain.TierFree))
	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.Equal(t, domain.TierFree, got.SubscriptionTier)
	require.Equal(t, "new-hash", got.PasswordHash)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateRole(ctx, "missing", domain.RoleAdmin), store.ErrNotFound)
}

func TestResetTokenConsumedOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "fp-1", now.Add(time.Hour)))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "fp-1", got.ResetTokenHash)
	require.NotNil(t, got.ResetTokenExpiry)

	id, err := s.Users().ConsumeResetToken(ctx, "fp-1", now)
	require.NoError(t, err)
	require.Equal(t, u.ID, id)

	_, err = s.Users().ConsumeResetToken(ctx, "fp-1", now)
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.ResetTokenHash)
	require.Nil(t, got.ResetTokenExpiry)
}

func TestResetTokenExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "fp-1", now.Add(time.Hour)))

	_, err := s.Users().ConsumeResetToken(ctx, "fp-1", now.Add(time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Users().ClearExpiredResetTokens(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestResetTokenReplacedByNewRequest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "fp-old", now.Add(time.Hour)))
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "fp-new", now.Add(time.Hour)))

	_, err := s.Users().ConsumeResetToken(ctx, "fp-old", now)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().ConsumeResetToken(ctx, "fp-new", now)
	require.NoError(t, err)
}

func TestSessionsRevoke(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	sess := newSession(u.ID, now, time.Hour)
	require.NoError(t, s.Sessions().Create(ctx, sess))

	revoked, err := s.Sessions().IsRevoked(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, s.Sessions().Revoke(ctx, sess.ID, now))
	require.NoError(t, s.Sessions().Revoke(ctx, sess.ID, now.Add(time.Minute)), "revoke is idempotent")

	revoked, err = s.Sessions().IsRevoked(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, revoked)

	got, err := s.Sessions().Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.Equal(t, now.UnixMilli(), got.RevokedAt.UnixMilli(), "first revocation time wins")

	revoked, err = s.Sessions().IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	require.True(t, revoked, "unknown sessions count as revoked")

	require.ErrorIs(t, s.Sessions().Revoke(ctx, "unknown", now), store.ErrNotFound)
}

func TestSessionsRotate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	old := newSession(u.ID, now, time.Hour)
	require.NoError(t, s.Sessions().Create(ctx, old))

	next := newSession(u.ID, now.Add(time.Minute), time.Hour)
	require.NoError(t, s.Sessions().Rotate(ctx, old.ID, next))

	got, err := s.Sessions().Get(ctx, old.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.Equal(t, next.ID, got.ReplacedBy)

	got, err = s.Sessions().Get(ctx, next.ID)
	require.NoError(t, err)
	require.True(t, got.Live(now.Add(time.Minute)))

	// Replaying the predecessor loses.
	again := newSession(u.ID, now.Add(2*time.Minute), time.Hour)
	require.ErrorIs(t, s.Sessions().Rotate(ctx, old.ID, again), store.ErrStale)

	_, err = s.Sessions().Get(ctx, again.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "loser must not leave a successor behind")
}

func TestSessionsRotateRejectsExpiredAndForeign(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ada := seedUser(t, s, "ada@example.com")
	bob := seedUser(t, s, "bob@example.com")
	now := time.Now()

	old := newSession(ada.ID, now, time.Minute)
	require.NoError(t, s.Sessions().Create(ctx, old))

	require.ErrorIs(t, s.Sessions().Rotate(ctx, old.ID, newSession(bob.ID, now, time.Hour)), store.ErrStale)
	require.ErrorIs(t, s.Sessions().Rotate(ctx, old.ID, newSession(ada.ID, now.Add(time.Minute), time.Hour)), store.ErrStale)
}

func TestSessionsRotateRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	old := newSession(u.ID, now, time.Hour)
	require.NoError(t, s.Sessions().Create(ctx, old))

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Sessions().Rotate(ctx, old.ID, newSession(u.ID, now, time.Hour))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else {
				errs = append(errs, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	for _, err := range errs {
		require.ErrorIs(t, err, store.ErrStale)
	}
}

func TestSessionsRevokeAllAndDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ada := seedUser(t, s, "ada@example.com")
	bob := seedUser(t, s, "bob@example.com")
	now := time.Now()

	a1 := newSession(ada.ID, now, time.Hour)
	a2 := newSession(ada.ID, now, time.Hour)
	b1 := newSession(bob.ID, now, time.Minute)
	for _, sess := range []domain.Session{a1, a2, b1} {
		require.NoError(t, s.Sessions().Create(ctx, sess))
	}

	n, err := s.Sessions().RevokeAllForUser(ctx, ada.ID, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	revoked, err := s.Sessions().IsRevoked(ctx, b1.ID)
	require.NoError(t, err)
	require.False(t, revoked)

	n, err = s.Sessions().DeleteExpired(ctx, now.Add(30*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Sessions().Get(ctx, b1.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Email: "ada@example.com", PasswordHash: "x",
			Role: domain.RoleUser, SubscriptionTier: domain.TierFree,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestWithTxRotateUsesTransaction(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ada@example.com")
	now := time.Now()

	old := newSession(u.ID, now, time.Hour)
	require.NoError(t, s.Sessions().Create(ctx, old))

	next := newSession(u.ID, now, time.Hour)
	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Sessions().Rotate(ctx, old.ID, next)
	})
	require.NoError(t, err)

	_, err = s.Sessions().Get(ctx, next.ID)
	require.NoError(t, err)
}
