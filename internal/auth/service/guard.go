package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/daybook/internal/auth/cookies"
	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/metrics"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/token"
	"github.com/aussiebroadwan/daybook/pkg/authsdk"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

type principalKey struct{}

// WithPrincipal stores the authenticated principal in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by Guard.Middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Guard authorizes requests carrying an access cookie.
type Guard struct {
	Codec   *token.Codec
	Cookies *cookies.Transport
	Store   store.Store
}

// Authorize verifies the access cookie of r. With required roles the token's
// role must satisfy one of them. Admin-gated checks also re-read the role
// from the directory and require the token's session to be unrevoked, so a
// demotion or forced sign-out takes effect before the token expires.
func (g *Guard) Authorize(ctx context.Context, r *http.Request, required ...domain.Role) (domain.Principal, error) {
	raw, ok := g.Cookies.AccessToken(r)
	if !ok {
		return domain.Principal{}, ErrMissingToken
	}

	p, err := g.Codec.Verify(raw, domain.TokenAccess)
	if err != nil {
		slogx.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
		return domain.Principal{}, ErrInvalidToken
	}

	if len(required) == 0 {
		return p, nil
	}
	if !satisfiesAny(p.Role, required) {
		return domain.Principal{}, ErrForbidden
	}
	if !slices.Contains(required, domain.RoleAdmin) {
		return p, nil
	}

	u, err := g.Store.Users().GetUserByID(ctx, p.UserID)
	if err != nil {
		return domain.Principal{}, directoryErr(err)
	}
	if !satisfiesAny(u.Role, required) {
		slogx.FromContext(ctx).Info("token role no longer held",
			slog.String("user_id", u.ID),
			slog.String("token_role", string(p.Role)),
			slog.String("role", string(u.Role)),
		)
		return domain.Principal{}, ErrForbidden
	}

	if p.SessionID == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	revoked, err := g.Store.Sessions().IsRevoked(ctx, p.SessionID)
	if err != nil {
		return domain.Principal{}, sessionErr(err)
	}
	if revoked {
		return domain.Principal{}, ErrInvalidToken
	}

	p.Role = u.Role
	return p, nil
}

// Middleware runs Authorize and stores the principal in the request context.
// Rejections are written as JSON errors.
func (g *Guard) Middleware(required ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, err := g.Authorize(ctx, r, required...)
			if err != nil {
				metrics.GuardTotal.WithLabelValues(guardOutcome(err)).Inc()
				GuardAPIError(ctx, err).WriteError(w)
				return
			}
			metrics.GuardTotal.WithLabelValues(metrics.OutcomeOK).Inc()

			ctx = WithPrincipal(ctx, p)
			ctx = httpx.WithUserID(ctx, p.UserID)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(slog.String("user_id", p.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardAPIError maps an Authorize error to its response.
func GuardAPIError(ctx context.Context, err error) *authsdk.APIError {
	switch {
	case errors.Is(err, ErrMissingToken):
		return authsdk.ErrUnauthorized
	case errors.Is(err, ErrUnauthenticated):
		return authsdk.ErrInvalidToken
	case errors.Is(err, ErrForbidden):
		return authsdk.ErrForbidden
	case errors.Is(err, ErrNotFound):
		return authsdk.ErrNotFound
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrDirectoryUnavailable):
		slogx.FromContext(ctx).Error("authorization backend unavailable", slog.Any("error", err))
		return authsdk.ErrServiceUnavailable
	default:
		slogx.FromContext(ctx).Error("authorization failed", slog.Any("error", err))
		return authsdk.ErrServer
	}
}

func guardOutcome(err error) string {
	switch {
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrDirectoryUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func satisfiesAny(have domain.Role, required []domain.Role) bool {
	for _, r := range required {
		if have.Satisfies(r) {
			return true
		}
	}
	return false
}
