package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/metrics"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/token"
	"github.com/aussiebroadwan/daybook/pkg/cryptox"
	"github.com/aussiebroadwan/daybook/pkg/idx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

// TokenPair is what the cookie transport sets after a login or refresh.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenService runs the session lifecycle: sign-in, refresh rotation and
// sign-out.
type TokenService struct {
	Store  store.Store
	Codec  *token.Codec
	Hasher *cryptox.Hasher

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the password and starts a session. Unknown emails and wrong
// passwords are indistinguishable.
func (s *TokenService) Login(ctx context.Context, email, password string) (domain.User, TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		// Burn the same hashing time as a real check.
		_ = s.Hasher.Verify(password, dummyHash)
		metrics.LoginTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return domain.User{}, TokenPair{}, directoryErr(err)
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("user_id", u.ID), slog.Any("error", err))
		}
		metrics.LoginTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.StartSession(ctx, u)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return domain.User{}, TokenPair{}, err
	}

	metrics.LoginTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	l.Info("user signed in", slog.String("user_id", u.ID))
	return u, pair, nil
}

// StartSession records a new refresh session for u and mints its tokens.
func (s *TokenService) StartSession(ctx context.Context, u domain.User) (TokenPair, error) {
	pair, sess, err := s.mint(u, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Store.Sessions().Create(ctx, sess); err != nil {
		return TokenPair{}, sessionErr(err)
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The predecessor session
// is revoked in the same atomic step that records the successor, so of two
// requests racing on one token exactly one wins. Store failures reject.
func (s *TokenService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	pair, err := s.refresh(ctx, raw)
	switch {
	case err == nil:
		metrics.RefreshTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrDirectoryUnavailable):
		metrics.RefreshTotal.WithLabelValues(metrics.OutcomeUnavailable).Inc()
	case errors.Is(err, ErrUnauthenticated):
		metrics.RefreshTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	default:
		metrics.RefreshTotal.WithLabelValues(metrics.OutcomeError).Inc()
	}
	return pair, err
}

func (s *TokenService) refresh(ctx context.Context, raw string) (TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	if raw == "" {
		return TokenPair{}, ErrMissingToken
	}

	p, err := s.Codec.Verify(raw, domain.TokenRefresh)
	if err != nil {
		l.Debug("refresh token rejected", slog.Any("error", err))
		return TokenPair{}, ErrInvalidRefresh
	}
	if _, err := idx.Parse(p.SessionID); err != nil {
		return TokenPair{}, ErrInvalidRefresh
	}

	sess, err := s.Store.Sessions().Get(ctx, p.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, ErrInvalidRefresh
	}
	if err != nil {
		return TokenPair{}, sessionErr(err)
	}
	if sess.UserID != p.UserID || !cryptox.EqualFingerprint(sess.TokenHash, cryptox.FingerprintToken(raw)) {
		l.Warn("refresh token does not match its session", slog.String("session_id", sess.ID))
		return TokenPair{}, ErrInvalidRefresh
	}
	if !sess.Live(now) {
		if sess.RevokedAt != nil {
			metrics.RefreshReuseTotal.Inc()
			l.Warn("refresh token reused",
				slog.String("user_id", sess.UserID),
				slog.String("session_id", sess.ID),
				slog.String("replaced_by", sess.ReplacedBy),
			)
		}
		return TokenPair{}, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, ErrUserGone
	}
	if err != nil {
		return TokenPair{}, directoryErr(err)
	}

	// Mint from the directory's current role, not the one in the old token.
	pair, next, err := s.mint(u, now)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.Store.Sessions().Rotate(ctx, sess.ID, next); err != nil {
		if errors.Is(err, store.ErrStale) {
			l.Info("refresh lost rotation race", slog.String("session_id", sess.ID))
			return TokenPair{}, ErrInvalidRefresh
		}
		return TokenPair{}, sessionErr(err)
	}

	return pair, nil
}

// Logout revokes the session behind a refresh token. It never fails: the
// caller clears cookies regardless, so a store outage is logged and counted
// and the session is left to expire.
func (s *TokenService) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}
	l := slogx.FromContext(ctx)

	p, err := s.Codec.Verify(raw, domain.TokenRefresh)
	if err != nil {
		return
	}

	err = s.Store.Sessions().Revoke(ctx, p.SessionID, s.now())
	switch {
	case err == nil:
		l.Info("user signed out", slog.String("user_id", p.UserID))
	case errors.Is(err, store.ErrNotFound):
	default:
		metrics.LogoutRevokeFailures.Inc()
		l.Warn("logout revoke failed, clearing cookies anyway",
			slog.String("session_id", p.SessionID),
			slog.Any("error", err),
		)
	}
}

// SignOutEverywhere revokes every session of userID.
func (s *TokenService) SignOutEverywhere(ctx context.Context, userID string) (int64, error) {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return 0, directoryErr(err)
	}
	n, err := s.Store.Sessions().RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, sessionErr(err)
	}
	slogx.FromContext(ctx).Info("revoked all sessions",
		slog.String("user_id", userID),
		slog.Int64("sessions", n),
	)
	return n, nil
}

// mint issues both tokens for u under a fresh session id.
func (s *TokenService) mint(u domain.User, now time.Time) (TokenPair, domain.Session, error) {
	sid := idx.New().String()
	p := domain.Principal{UserID: u.ID, Role: u.Role, SessionID: sid}

	access, err := s.Codec.Issue(p, domain.TokenAccess, 0)
	if err != nil {
		return TokenPair{}, domain.Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Codec.Issue(p, domain.TokenRefresh, 0)
	if err != nil {
		return TokenPair{}, domain.Session{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{Access: access, Refresh: refresh}, domain.Session{
		ID:        sid,
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		CreatedAt: now,
		ExpiresAt: now.Add(s.Codec.RefreshTTL()),
	}, nil
}

// dummyHash is verified against when the email is unknown.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$c29tZXNhbHRzb21lc2FsdA$2Rr8sRbyGEPDF0qGdXOuJGQm6m3ag4pU8ceHTDVxDzU"
