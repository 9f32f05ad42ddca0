package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/daybook/internal/auth/cookies"
	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/daybook/internal/auth/token"
	"github.com/aussiebroadwan/daybook/pkg/cryptox"
	"github.com/aussiebroadwan/daybook/pkg/idx"
	"github.com/aussiebroadwan/daybook/pkg/jwtx"
)

const testPassword = "correct horse battery"

var errBackendDown = errors.New("connection refused")

type env struct {
	store   *sqlite.Store
	codec   *token.Codec
	cookies *cookies.Transport
	hasher  *cryptox.Hasher
	tokens  *TokenService
	guard   *Guard
	users   *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: "daybook-test"})
	require.NoError(t, err)
	codec, err := token.NewCodec(km, "daybook-test", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	tr := cookies.New(cookies.Config{AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour})
	hasher := cryptox.NewHasher("pepper")

	return &env{
		store:   st,
		codec:   codec,
		cookies: tr,
		hasher:  hasher,
		tokens:  &TokenService{Store: st, Codec: codec, Hasher: hasher},
		guard:   &Guard{Codec: codec, Cookies: tr, Store: st},
		users:   &UserService{Store: st, Hasher: hasher},
	}
}

func (e *env) createUser(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()
	hash, err := e.hasher.Hash(testPassword)
	require.NoError(t, err)

	u := domain.User{
		ID:               idx.New().String(),
		Email:            email,
		DisplayName:      "Test User",
		PasswordHash:     hash,
		Role:             role,
		SubscriptionTier: domain.TierPro,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u
}

func (e *env) login(t *testing.T, u domain.User) TokenPair {
	t.Helper()
	pair, err := e.tokens.StartSession(context.Background(), u)
	require.NoError(t, err)
	return pair
}

func requestWithAccess(access string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if access != "" {
		r.AddCookie(&http.Cookie{Name: cookies.AccessName, Value: access})
	}
	return r
}

// faultyStore overrides the repositories of a working store.
type faultyStore struct {
	store.Store
	users    store.Users
	sessions store.Sessions
}

func (f *faultyStore) Users() store.Users {
	if f.users != nil {
		return f.users
	}
	return f.Store.Users()
}

func (f *faultyStore) Sessions() store.Sessions {
	if f.sessions != nil {
		return f.sessions
	}
	return f.Store.Sessions()
}

// downSessions fails every call like an unreachable backend.
type downSessions struct{}

func (downSessions) Create(context.Context, domain.Session) error { return unavailable() }
func (downSessions) Get(context.Context, string) (domain.Session, error) {
	return domain.Session{}, unavailable()
}
func (downSessions) IsRevoked(context.Context, string) (bool, error)      { return false, unavailable() }
func (downSessions) Revoke(context.Context, string, time.Time) error      { return unavailable() }
func (downSessions) Rotate(context.Context, string, domain.Session) error { return unavailable() }
func (downSessions) RevokeAllForUser(context.Context, string, time.Time) (int64, error) {
	return 0, unavailable()
}
func (downSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, unavailable()
}

// usersWith replaces GetUserByID of a working directory.
type usersWith struct {
	store.Users
	getByID func(ctx context.Context, id string) (domain.User, error)
}

func (u usersWith) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return u.getByID(ctx, id)
}

func missingUsers(base store.Users) store.Users {
	return usersWith{Users: base, getByID: func(context.Context, string) (domain.User, error) {
		return domain.User{}, store.ErrNotFound
	}}
}

func downUsers(base store.Users) store.Users {
	return usersWith{Users: base, getByID: func(context.Context, string) (domain.User, error) {
		return domain.User{}, unavailable()
	}}
}

func unavailable() error {
	return errors.Join(store.ErrUnavailable, errBackendDown)
}

// captureMailer records sent mail.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
