package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/daybook/internal/auth/store"
)

// Taxonomy. Handlers switch on these with errors.Is; everything else is a 500.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrStoreUnavailable     = errors.New("session store unavailable")
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
)

// Refinements of ErrUnauthenticated that pick the response message.
var (
	ErrMissingToken       = fmt.Errorf("%w: missing token", ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrInvalidRefresh     = fmt.Errorf("%w: invalid refresh token", ErrUnauthenticated)
	ErrUserGone           = fmt.Errorf("%w: user not found", ErrUnauthenticated)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrEmailTaken        = errors.New("email already registered")
	ErrWeakPassword      = errors.New("password too short")
	ErrInvalidInput      = errors.New("invalid input")
)

// MinPasswordLen is the shortest password accepted on register and reset.
const MinPasswordLen = 8

// directoryErr classifies a store error from the user directory.
func directoryErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
}

// sessionErr classifies a store error from the session store.
func sessionErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
