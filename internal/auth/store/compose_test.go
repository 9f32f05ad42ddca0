package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/daybook/pkg/idx"
)

// newComposite keeps users in sqlite and sessions in Redis.
func newComposite(t *testing.T) (*miniredis.Miniredis, store.Store) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations())
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	sessions, err := redis.Open(ctx, redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	return mr, store.WithSessions(db, sessions, sessions.Ping)
}

func createUser(t *testing.T, st store.Store) domain.User {
	t.Helper()
	u := domain.User{
		ID:               idx.New().String(),
		Email:            "ada@example.com",
		DisplayName:      "Ada",
		PasswordHash:     "hash",
		Role:             domain.RoleUser,
		SubscriptionTier: domain.TierFree,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func createSession(t *testing.T, st store.Store, userID string, now time.Time) domain.Session {
	t.Helper()
	sess := domain.Session{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: "hash-" + idx.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, st.Sessions().Create(context.Background(), sess))
	return sess
}

func TestWithSessionsTxCommits(t *testing.T) {
	ctx := context.Background()
	mr, st := newComposite(t)
	now := time.Now().Truncate(time.Millisecond)

	u := createUser(t, st)
	sess := createSession(t, st, u.ID, now)
	require.True(t, mr.Exists("daybook:session:"+sess.ID), "session lives in redis")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin); err != nil {
			return err
		}
		n, err := tx.Sessions().RevokeAllForUser(ctx, u.ID, now)
		if err != nil {
			return err
		}
		require.EqualValues(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)

	revoked, err := st.Sessions().Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
}

func TestWithSessionsTxRollsBackDirectory(t *testing.T) {
	ctx := context.Background()
	_, st := newComposite(t)
	u := createUser(t, st)
	errAbort := errors.New("abort")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, got.Role)
}

func TestWithSessionsManualTx(t *testing.T) {
	ctx := context.Background()
	_, st := newComposite(t)
	u := createUser(t, st)

	tx, err := st.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Users().UpdateSubscriptionTier(ctx, u.ID, domain.TierPro))
	require.Same(t, st.Sessions(), tx.Sessions())
	require.NoError(t, tx.Commit())

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TierPro, got.SubscriptionTier)
}

func TestWithSessionsPingCoversBothBackends(t *testing.T) {
	ctx := context.Background()
	mr, st := newComposite(t)

	require.NoError(t, st.Ping(ctx))

	mr.Close()
	require.ErrorIs(t, st.Ping(ctx), store.ErrUnavailable)
}
