package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/google/uuid"
)

// MaxCreateAttempts bounds the conflict resolution loop of LoginOrRegister.
const MaxCreateAttempts = 10

var (
	ErrRetryLimitReached = errors.New("operation retry count reached")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyUsed  = errors.New("email already used by another user")
	ErrProviderLinked    = errors.New("external login already linked to a user")
)

// ConflictObserver is told about every conflict the store reports.
type ConflictObserver interface {
	StoreConflict(err error)
}

// IdentityService resolves external users to identities. Races between
// concurrent registrations are settled by the store's uniqueness constraints
// and retried here with fresh values.
type IdentityService struct {
	store     store.Identities
	names     *NameGenerator
	conflicts ConflictObserver
	newID     func() uuid.UUID
}

func NewIdentityService(st store.Identities, names *NameGenerator) *IdentityService {
	return &IdentityService{store: st, names: names, newID: uuid.New}
}

// WithConflictObserver attaches a conflict observer, e.g. metrics.
func (s *IdentityService) WithConflictObserver(o ConflictObserver) *IdentityService {
	s.conflicts = o
	return s
}

// LoginOrRegister returns the identity linked to the external login, creating
// one when the login is unknown. The provider's name is used when free,
// otherwise a generated one.
func (s *IdentityService) LoginOrRegister(ctx context.Context, info domain.ExternalUserInfo) (domain.Identity, error) {
	log := slogx.FromContext(ctx)
	login := info.Login()

	identity, err := s.store.Find(ctx, store.ByExternalLogin(login))
	switch {
	case err == nil:
		return identity, nil
	case !errors.Is(err, store.ErrNotFound):
		return domain.Identity{}, fmt.Errorf("find external login: %w", err)
	}

	var name string
	if info.Name != nil {
		name = strings.TrimSpace(*info.Name)
	}
	if name == "" {
		if name, err = s.names.Generate(); err != nil {
			return domain.Identity{}, fmt.Errorf("generate name: %w", err)
		}
	}

	userID := s.newID()
	for attempt := 1; attempt <= MaxCreateAttempts; attempt++ {
		identity, err := s.store.CreateUser(ctx, userID, name, info.Email, &login)
		if err == nil {
			log.Info("registered user", "user_id", identity.UserID, "provider", login.Provider)
			return identity, nil
		}
		if s.conflicts != nil {
			s.conflicts.StoreConflict(err)
		}

		switch {
		case errors.Is(err, store.ErrUserIDConflict):
			userID = s.newID()
		case errors.Is(err, store.ErrNameConflict):
			if name, err = s.names.Generate(); err != nil {
				return domain.Identity{}, fmt.Errorf("generate name: %w", err)
			}
		case errors.Is(err, store.ErrLinkEmailConflict):
			return domain.Identity{}, ErrEmailAlreadyUsed
		case errors.Is(err, store.ErrLinkProviderConflict):
			// A concurrent registration of the same login won.
			identity, err := s.store.Find(ctx, store.ByExternalLogin(login))
			if err != nil {
				return domain.Identity{}, fmt.Errorf("find concurrently registered login: %w", err)
			}
			return identity, nil
		default:
			return domain.Identity{}, fmt.Errorf("create user: %w", err)
		}
		log.Debug("retrying user creation", "attempt", attempt)
	}
	return domain.Identity{}, ErrRetryLimitReached
}

// LinkUser binds an external login to an existing identity.
func (s *IdentityService) LinkUser(ctx context.Context, userID uuid.UUID, login domain.ExternalLogin) error {
	err := s.store.LinkUser(ctx, userID, login)
	switch {
	case err == nil:
		slogx.FromContext(ctx).Info("linked external login", "user_id", userID, "provider", login.Provider)
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrLinkProviderConflict):
		if s.conflicts != nil {
			s.conflicts.StoreConflict(err)
		}
		return ErrProviderLinked
	default:
		return fmt.Errorf("link user: %w", err)
	}
}

func (s *IdentityService) GetUser(ctx context.Context, userID uuid.UUID) (domain.Identity, error) {
	identity, err := s.store.Find(ctx, store.ByUserID(userID))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, ErrUserNotFound
	}
	return identity, err
}

func (s *IdentityService) LinkedProviders(ctx context.Context, userID uuid.UUID) ([]domain.ExternalLoginLink, error) {
	return s.store.LinkedProviders(ctx, userID)
}

// DeleteUser removes the identity and its external logins. Deleting an
// unknown user is not an error.
func (s *IdentityService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.DeleteIdentity(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	slogx.FromContext(ctx).Info("deleted user", "user_id", userID)
	return nil
}
