package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/daybook/internal/auth/service"
	"github.com/aussiebroadwan/daybook/pkg/authsdk"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

// writeServiceError maps a service error onto its fixed API response.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErrorFor(r, err).WriteError(w)
}

func apiErrorFor(r *http.Request, err error) *authsdk.APIError {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrMissingToken):
		return authsdk.ErrUnauthorized
	case errors.Is(err, service.ErrUnauthenticated):
		return authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrForbidden):
		return authsdk.ErrForbidden
	case errors.Is(err, service.ErrNotFound):
		return authsdk.ErrNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return authsdk.ErrEmailTaken
	case errors.Is(err, service.ErrWeakPassword):
		return authsdk.ErrWeakPassword
	case errors.Is(err, service.ErrInvalidResetToken):
		return authsdk.ErrInvalidResetToken
	case errors.Is(err, service.ErrInvalidInput):
		return authsdk.ErrBadRequest
	case errors.Is(err, service.ErrStoreUnavailable), errors.Is(err, service.ErrDirectoryUnavailable):
		log.Error("backend unavailable", slog.Any("error", err))
		return authsdk.ErrServiceUnavailable
	default:
		log.Error("request failed", slog.Any("error", err))
		return authsdk.ErrServer
	}
}

// refreshAPIError narrows the refresh outcomes to the three messages a
// client may see on 401.
func refreshAPIError(r *http.Request, err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrMissingToken):
		return authsdk.ErrNoRefreshToken
	case errors.Is(err, service.ErrUserGone):
		return authsdk.ErrRefreshUserNotFound
	case errors.Is(err, service.ErrUnauthenticated):
		return authsdk.ErrInvalidRefreshToken
	default:
		return apiErrorFor(r, err)
	}
}

func writeSuccess(w http.ResponseWriter, status int) {
	httpx.WriteJSON(w, status, authsdk.SuccessResponse{Success: true})
}
