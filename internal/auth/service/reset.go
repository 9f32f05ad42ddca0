package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/metrics"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/pkg/cryptox"
	"github.com/aussiebroadwan/daybook/pkg/mailx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

// DefaultResetTTL is how long a reset link stays usable.
const DefaultResetTTL = time.Hour

// ResetService issues and consumes one-shot password reset tokens. Only the
// token fingerprint is stored; the raw token exists in the mail alone.
type ResetService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Mailer mailx.Mailer

	// URLBase is the page that takes the token, e.g.
	// https://daybook.example/reset-password. The token is added as ?token=.
	URLBase string
	TTL     time.Duration
	Now     func() time.Time
}

func (s *ResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultResetTTL
}

// RequestReset mails a reset link when email belongs to a user. It reports
// nothing back: the caller answers the same way whether or not the account
// exists, and internal failures are only logged.
func (s *ResetService) RequestReset(ctx context.Context, email string) {
	l := slogx.FromContext(ctx)
	metrics.ResetRequestsTotal.Inc()

	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		l.Error("reset lookup failed", slog.Any("error", err))
		return
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate reset token", slog.Any("error", err))
		return
	}

	expiresAt := s.now().Add(s.ttl())
	if err := s.Store.Users().SetResetToken(ctx, u.ID, cryptox.FingerprintToken(raw), expiresAt); err != nil {
		l.Error("failed to store reset token", slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nUse the link below to choose a new daybook password. It expires in %s.\n\n%s\n\nIf you did not ask for this you can ignore this email.\n",
		u.DisplayName, s.ttl(), s.link(raw),
	)
	if err := s.Mailer.Send(ctx, u.Email, "Reset your daybook password", body); err != nil {
		l.Error("failed to send reset mail", slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	l.Info("reset link sent", slog.String("user_id", u.ID))
}

// ResetPassword consumes raw, sets a new password and signs the user out
// everywhere. A token works at most once and never after it expires.
func (s *ResetService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	if raw == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < MinPasswordLen {
		return ErrWeakPassword
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	// The revoke runs inside the transaction so a session store failure rolls
	// the reset back: the token stays usable and the old password stays.
	now := s.now()
	var (
		userID  string
		revoked int64
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Users().ConsumeResetToken(ctx, cryptox.FingerprintToken(raw), now)
		if err != nil {
			return err
		}
		userID = id
		if err := tx.Users().UpdatePasswordHash(ctx, id, hash); err != nil {
			return err
		}
		n, err := tx.Sessions().RevokeAllForUser(ctx, id, now)
		if err != nil {
			return sessionErr(err)
		}
		revoked = n
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrInvalidResetToken
	case errors.Is(err, ErrStoreUnavailable):
		return err
	case err != nil:
		return directoryErr(err)
	}

	slogx.FromContext(ctx).Info("password reset",
		slog.String("user_id", userID),
		slog.Int64("sessions_revoked", revoked),
	)
	return nil
}

func (s *ResetService) link(raw string) string {
	if s.URLBase == "" {
		return raw
	}
	u, err := url.Parse(s.URLBase)
	if err != nil {
		return s.URLBase + "?token=" + url.QueryEscape(raw)
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String()
}
