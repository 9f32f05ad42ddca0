package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	user := e.createUser(t, "user@example.com", domain.RoleUser)
	admin := e.createUser(t, "admin@example.com", domain.RoleAdmin)
	userPair := e.login(t, user)
	adminPair := e.login(t, admin)

	t.Run("no cookie", func(t *testing.T) {
		_, err := e.guard.Authorize(ctx, requestWithAccess(""))
		require.ErrorIs(t, err, ErrMissingToken)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := e.guard.Authorize(ctx, requestWithAccess("bogus"))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token in the access cookie", func(t *testing.T) {
		_, err := e.guard.Authorize(ctx, requestWithAccess(userPair.Refresh))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("any signed-in user", func(t *testing.T) {
		p, err := e.guard.Authorize(ctx, requestWithAccess(userPair.Access))
		require.NoError(t, err)
		require.Equal(t, user.ID, p.UserID)
		require.Equal(t, domain.TokenAccess, p.Kind)
	})

	t.Run("user role rejected for admin", func(t *testing.T) {
		_, err := e.guard.Authorize(ctx, requestWithAccess(userPair.Access), domain.RoleAdmin)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin passes admin and user checks", func(t *testing.T) {
		p, err := e.guard.Authorize(ctx, requestWithAccess(adminPair.Access), domain.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, p.Role)

		_, err = e.guard.Authorize(ctx, requestWithAccess(adminPair.Access), domain.RoleUser)
		require.NoError(t, err)
	})
}

func TestAuthorizeAdminDemoted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	admin := e.createUser(t, "admin@example.com", domain.RoleAdmin)
	pair := e.login(t, admin)

	require.NoError(t, e.store.Users().UpdateRole(ctx, admin.ID, domain.RoleUser))

	// The token still says admin, the directory no longer does.
	_, err := e.guard.Authorize(ctx, requestWithAccess(pair.Access), domain.RoleAdmin)
	require.ErrorIs(t, err, ErrForbidden)

	// Non-admin checks trust the token until it expires.
	_, err = e.guard.Authorize(ctx, requestWithAccess(pair.Access), domain.RoleUser)
	require.NoError(t, err)
}

func TestAuthorizeAdminBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	admin := e.createUser(t, "admin@example.com", domain.RoleAdmin)
	pair := e.login(t, admin)
	r := requestWithAccess(pair.Access)

	tests := []struct {
		name  string
		guard *Guard
		want  error
	}{
		{
			name:  "user deleted",
			guard: &Guard{Codec: e.codec, Cookies: e.cookies, Store: &faultyStore{Store: e.store, users: missingUsers(e.store.Users())}},
			want:  ErrNotFound,
		},
		{
			name:  "directory down",
			guard: &Guard{Codec: e.codec, Cookies: e.cookies, Store: &faultyStore{Store: e.store, users: downUsers(e.store.Users())}},
			want:  ErrDirectoryUnavailable,
		},
		{
			name:  "session store down",
			guard: &Guard{Codec: e.codec, Cookies: e.cookies, Store: &faultyStore{Store: e.store, sessions: downSessions{}}},
			want:  ErrStoreUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.guard.Authorize(ctx, r, domain.RoleAdmin)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthorizeAdminSignedOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	admin := e.createUser(t, "admin@example.com", domain.RoleAdmin)
	pair := e.login(t, admin)

	_, err := e.tokens.SignOutEverywhere(ctx, admin.ID)
	require.NoError(t, err)

	_, err = e.guard.Authorize(ctx, requestWithAccess(pair.Access), domain.RoleAdmin)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestGuardMiddleware(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	user := e.createUser(t, "user@example.com", domain.RoleUser)
	pair := e.login(t, user)

	var seen domain.Principal
	h := e.guard.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		id, ok := httpx.UserIDFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, p.UserID, id)
		seen = p
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithAccess(pair.Access))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, user.ID, seen.UserID)

	tests := []struct {
		name   string
		access string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "Unauthorized"},
		{"invalid", "bogus", http.StatusUnauthorized, "Invalid Token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestWithAccess(tt.access))
			require.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.Equal(t, tt.msg, body["error"])
			require.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
		})
	}

	adminOnly := e.guard.Middleware(domain.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	}))
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, requestWithAccess(pair.Access))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
