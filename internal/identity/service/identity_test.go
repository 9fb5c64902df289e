package service

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/internal/identity/store/drivers/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*IdentityService, store.Identities) {
	t.Helper()
	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	names, err := NewNameGenerator("user", 0)
	require.NoError(t, err)
	return NewIdentityService(st.Identities(), names), st.Identities()
}

func strPtr(s string) *string { return &s }

func githubUser(id, name string, email *string) domain.ExternalUserInfo {
	return domain.ExternalUserInfo{Provider: "github", ProviderID: id, Name: strPtr(name), Email: email}
}

var generatedName = regexp.MustCompile(`^user_\d{8}$`)

// conflictCounter records conflicts the service reports.
type conflictCounter struct{ errs []error }

func (c *conflictCounter) StoreConflict(err error) { c.errs = append(c.errs, err) }

// sequenceIDs hands out ids in order, then fresh random ones.
func sequenceIDs(ids ...uuid.UUID) func() uuid.UUID {
	return func() uuid.UUID {
		if len(ids) == 0 {
			return uuid.New()
		}
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

func TestLoginOrRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("registers then logs in", func(t *testing.T) {
		svc, _ := newTestService(t)

		created, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", strPtr("alice@example.com")))
		require.NoError(t, err)
		require.Equal(t, "alice", created.Name)
		require.Equal(t, "alice@example.com", *created.Email)
		require.Equal(t, domain.IdentityKindUser, created.Kind)

		again, err := svc.LoginOrRegister(ctx, githubUser("1", "renamed", nil))
		require.NoError(t, err)
		require.Equal(t, created.UserID, again.UserID)
		require.Equal(t, "alice", again.Name)
	})

	t.Run("missing name is generated", func(t *testing.T) {
		svc, _ := newTestService(t)

		identity, err := svc.LoginOrRegister(ctx, domain.ExternalUserInfo{Provider: "github", ProviderID: "1"})
		require.NoError(t, err)
		require.Regexp(t, generatedName, identity.Name)
		require.Nil(t, identity.Email)
	})

	t.Run("taken name falls back to generated", func(t *testing.T) {
		svc, _ := newTestService(t)
		counter := &conflictCounter{}
		svc.WithConflictObserver(counter)

		_, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
		require.NoError(t, err)

		identity, err := svc.LoginOrRegister(ctx, githubUser("2", "alice", nil))
		require.NoError(t, err)
		require.Regexp(t, generatedName, identity.Name)
		require.Len(t, counter.errs, 1)
		require.ErrorIs(t, counter.errs[0], store.ErrNameConflict)
	})

	t.Run("taken user id is regenerated", func(t *testing.T) {
		svc, _ := newTestService(t)
		taken := uuid.New()
		svc.newID = sequenceIDs(taken, taken)

		first, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
		require.NoError(t, err)
		require.Equal(t, taken, first.UserID)

		second, err := svc.LoginOrRegister(ctx, githubUser("2", "bob", nil))
		require.NoError(t, err)
		require.NotEqual(t, taken, second.UserID)
		require.Equal(t, "bob", second.Name)
	})

	t.Run("email used by another user", func(t *testing.T) {
		svc, identities := newTestService(t)

		_, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", strPtr("shared@example.com")))
		require.NoError(t, err)

		_, err = svc.LoginOrRegister(ctx, domain.ExternalUserInfo{
			Provider: "google", ProviderID: "g1", Name: strPtr("alice2"), Email: strPtr("shared@example.com"),
		})
		require.ErrorIs(t, err, ErrEmailAlreadyUsed)

		_, err = identities.Find(ctx, store.ByName("alice2"))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("retry limit", func(t *testing.T) {
		svc, _ := newTestService(t)
		taken := uuid.New()
		svc.newID = func() uuid.UUID { return taken }

		_, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
		require.NoError(t, err)

		_, err = svc.LoginOrRegister(ctx, githubUser("2", "bob", nil))
		require.ErrorIs(t, err, ErrRetryLimitReached)
	})
}

// racingStore hides the external login from the first lookup, as if a
// concurrent registration committed between the lookup and the insert.
type racingStore struct {
	store.Identities
	hidden bool
}

func (r *racingStore) Find(ctx context.Context, by store.FindIdentity) (domain.Identity, error) {
	if by.Kind == store.FindByExternalLogin && !r.hidden {
		r.hidden = true
		return domain.Identity{}, store.ErrNotFound
	}
	return r.Identities.Find(ctx, by)
}

func TestLoginOrRegisterLostRace(t *testing.T) {
	ctx := context.Background()
	svc, identities := newTestService(t)

	winner, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
	require.NoError(t, err)

	racing := NewIdentityService(&racingStore{Identities: identities}, svc.names)
	got, err := racing.LoginOrRegister(ctx, githubUser("1", "alice", nil))
	require.NoError(t, err)
	require.Equal(t, winner.UserID, got.UserID)
}

func TestLinkUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	alice, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
	require.NoError(t, err)
	bob, err := svc.LoginOrRegister(ctx, githubUser("2", "bob", nil))
	require.NoError(t, err)

	google := domain.ExternalLogin{Provider: "google", ProviderID: "g1"}
	require.NoError(t, svc.LinkUser(ctx, alice.UserID, google))

	require.ErrorIs(t, svc.LinkUser(ctx, bob.UserID, google), ErrProviderLinked)
	require.ErrorIs(t, svc.LinkUser(ctx, uuid.New(), domain.ExternalLogin{Provider: "x", ProviderID: "1"}), ErrUserNotFound)

	links, err := svc.LinkedProviders(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, "github", links[0].Provider)
	require.Equal(t, "google", links[1].Provider)

	// The linked login now signs in as alice.
	got, err := svc.LoginOrRegister(ctx, domain.ExternalUserInfo{Provider: "google", ProviderID: "g1"})
	require.NoError(t, err)
	require.Equal(t, alice.UserID, got.UserID)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	alice, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, alice.UserID))
	_, err = svc.GetUser(ctx, alice.UserID)
	require.ErrorIs(t, err, ErrUserNotFound)

	links, err := svc.LinkedProviders(ctx, alice.UserID)
	require.NoError(t, err)
	require.Empty(t, links)

	// Deleting twice is fine.
	require.NoError(t, svc.DeleteUser(ctx, alice.UserID))

	again, err := svc.LoginOrRegister(ctx, githubUser("1", "alice", nil))
	require.NoError(t, err)
	require.NotEqual(t, alice.UserID, again.UserID)
}
