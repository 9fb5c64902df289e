package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("store: not found")

	ErrUserIDConflict       = errors.New("store: user id already taken")
	ErrNameConflict         = errors.New("store: name already taken")
	ErrLinkEmailConflict    = errors.New("store: email already linked to a user")
	ErrLinkProviderConflict = errors.New("store: external id already linked to a user")
)

// MaxSearchCount is the hard ceiling on the number of identities a single
// search returns.
const MaxSearchCount = 100

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// provide it through the shared sqlstore implementation.
type Store interface {
	Identities() Identities

	ApplyMigrations() error

	// Close releases the underlying connection pool and prepared statements.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Identities interface {
	// CreateUser inserts a new user identity and, when login is given, its
	// first external login link in the same transaction. Uniqueness
	// violations roll the transaction back and return one of the conflict
	// errors.
	CreateUser(
		ctx context.Context,
		userID uuid.UUID,
		name string,
		email *string,
		login *domain.ExternalLogin,
	) (domain.Identity, error)

	// Find returns the identity matching the criteria or ErrNotFound.
	Find(ctx context.Context, by FindIdentity) (domain.Identity, error)

	// Search lists identities using keyset pagination.
	Search(ctx context.Context, search SearchIdentity) ([]domain.Identity, error)

	// DeleteIdentity removes the identity; its external logins cascade.
	DeleteIdentity(ctx context.Context, userID uuid.UUID) error

	// LinkUser binds an external login to an existing identity.
	LinkUser(ctx context.Context, userID uuid.UUID, login domain.ExternalLogin) error

	// LinkedProviders returns the external logins bound to the identity,
	// ordered by provider.
	LinkedProviders(ctx context.Context, userID uuid.UUID) ([]domain.ExternalLoginLink, error)
}
