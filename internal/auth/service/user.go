package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/pkg/cryptox"
	"github.com/aussiebroadwan/daybook/pkg/idx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

// MaxDisplayNameLen bounds display names in runes.
const MaxDisplayNameLen = 100

type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// Register creates a user account on the free tier.
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.User{}, ErrInvalidInput
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email[:strings.IndexByte(email, '@')]
	}
	if len([]rune(displayName)) > MaxDisplayNameLen {
		return domain.User{}, ErrInvalidInput
	}
	if len(password) < MinPasswordLen {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:               idx.New().String(),
		Email:            email,
		DisplayName:      displayName,
		PasswordHash:     hash,
		Role:             domain.RoleUser,
		SubscriptionTier: domain.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, directoryErr(err)
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, directoryErr(err)
	}
	return u, nil
}

// SetRole changes a user's role. Admin-gated checks re-read the directory, so
// a demotion locks the user out of admin endpoints at once.
func (s *UserService) SetRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return ErrInvalidInput
	}
	if err := s.Store.Users().UpdateRole(ctx, userID, role); err != nil {
		return directoryErr(err)
	}
	slogx.FromContext(ctx).Info("user role changed",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

// CancelSubscription downgrades the user to the free tier. It is the only
// billing write this service makes.
func (s *UserService) CancelSubscription(ctx context.Context, userID string) error {
	if err := s.Store.Users().UpdateSubscriptionTier(ctx, userID, domain.TierFree); err != nil {
		return directoryErr(err)
	}
	slogx.FromContext(ctx).Info("subscription cancelled", slog.String("user_id", userID))
	return nil
}
