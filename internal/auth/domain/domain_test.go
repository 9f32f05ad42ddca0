package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestRoleSatisfies(t *testing.T) {
	require.True(t, domain.RoleAdmin.Satisfies(domain.RoleAdmin))
	require.True(t, domain.RoleAdmin.Satisfies(domain.RoleUser))
	require.True(t, domain.RoleUser.Satisfies(domain.RoleUser))
	require.False(t, domain.RoleUser.Satisfies(domain.RoleAdmin))
	require.False(t, domain.Role("root").Valid())
}

func TestSessionLive(t *testing.T) {
	now := time.Now()
	s := domain.Session{ExpiresAt: now.Add(time.Minute)}
	require.True(t, s.Live(now))
	require.False(t, s.Live(now.Add(time.Minute)))

	revoked := now
	s.RevokedAt = &revoked
	require.False(t, s.Live(now))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "ada@example.com", domain.NormalizeEmail("  Ada@Example.COM "))
}
