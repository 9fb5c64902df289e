// Package storetest holds the behaviour every identity store driver must
// share. Drivers call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. It is called once per test.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, ids store.Identities)
	}{
		{"CreateAndFind", testCreateAndFind},
		{"CreateWithoutEmail", testCreateWithoutEmail},
		{"CreateConflicts", testCreateConflicts},
		{"FailedCreateLeavesNothing", testFailedCreateLeavesNothing},
		{"LinkUser", testLinkUser},
		{"DeleteCascades", testDeleteCascades},
		{"SearchPaginatesByName", testSearchPaginatesByName},
		{"SearchPaginatesByUserID", testSearchPaginatesByUserID},
		{"SearchByEmailSkipsMissing", testSearchByEmailSkipsMissing},
		{"SearchFilters", testSearchFilters},
		{"SearchCapsCount", testSearchCapsCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			tt.fn(t, s.Identities())
		})
	}
}

func ptr(s string) *string { return &s }

func mustCreate(t *testing.T, ids store.Identities, name string, email *string, login *domain.ExternalLogin) domain.Identity {
	t.Helper()
	identity, err := ids.CreateUser(context.Background(), uuid.New(), name, email, login)
	require.NoError(t, err)
	return identity
}

func testCreateAndFind(t *testing.T, ids store.Identities) {
	ctx := context.Background()
	login := domain.ExternalLogin{Provider: "github", ProviderID: "1234"}

	created := mustCreate(t, ids, "alice", ptr("alice@example.com"), &login)
	require.Equal(t, domain.IdentityKindUser, created.Kind)
	require.False(t, created.IsEmailConfirmed)
	require.False(t, created.Creation.IsZero())

	for _, by := range []store.FindIdentity{
		store.ByUserID(created.UserID),
		store.ByName("alice"),
		store.ByEmail("alice@example.com"),
		store.ByExternalLogin(login),
	} {
		t.Run(by.String(), func(t *testing.T) {
			found, err := ids.Find(ctx, by)
			require.NoError(t, err)
			require.Equal(t, created.UserID, found.UserID)
			require.Equal(t, created.Name, found.Name)
			require.Equal(t, *created.Email, *found.Email)
			require.True(t, created.Creation.Equal(found.Creation),
				"creation %s != %s", created.Creation, found.Creation)
		})
	}

	_, err := ids.Find(ctx, store.ByName("bob"))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = ids.Find(ctx, store.ByExternalLogin(domain.ExternalLogin{Provider: "github", ProviderID: "9"}))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testCreateWithoutEmail(t *testing.T, ids store.Identities) {
	// Missing emails never collide with each other.
	first := mustCreate(t, ids, "first", nil, nil)
	second := mustCreate(t, ids, "second", nil, nil)

	found, err := ids.Find(context.Background(), store.ByUserID(first.UserID))
	require.NoError(t, err)
	require.Nil(t, found.Email)
	require.NotEqual(t, first.UserID, second.UserID)
}

func testCreateConflicts(t *testing.T, ids store.Identities) {
	ctx := context.Background()
	login := domain.ExternalLogin{Provider: "gitlab", ProviderID: "42"}
	existing := mustCreate(t, ids, "taken", ptr("taken@example.com"), &login)

	tests := []struct {
		name    string
		userID  uuid.UUID
		user    string
		email   *string
		login   *domain.ExternalLogin
		wantErr error
	}{
		{"user id", existing.UserID, "fresh", nil, nil, store.ErrUserIDConflict},
		{"name", uuid.New(), "taken", nil, nil, store.ErrNameConflict},
		{"email", uuid.New(), "fresh", ptr("taken@example.com"), nil, store.ErrLinkEmailConflict},
		{"external login", uuid.New(), "fresh", nil, &login, store.ErrLinkProviderConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ids.CreateUser(ctx, tt.userID, tt.user, tt.email, tt.login)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// The conflicting attempts left the existing row and its link untouched.
	for _, by := range []store.FindIdentity{
		store.ByUserID(existing.UserID),
		store.ByName("taken"),
		store.ByEmail("taken@example.com"),
		store.ByExternalLogin(login),
	} {
		found, err := ids.Find(ctx, by)
		require.NoError(t, err, by.String())
		require.Equal(t, existing.UserID, found.UserID, by.String())
		require.Equal(t, existing.Kind, found.Kind, by.String())
		require.Equal(t, "taken", found.Name, by.String())
		require.NotNil(t, found.Email, by.String())
		require.Equal(t, "taken@example.com", *found.Email, by.String())
		require.Equal(t, existing.IsEmailConfirmed, found.IsEmailConfirmed, by.String())
		require.True(t, existing.Creation.Equal(found.Creation), by.String())
	}

	// The store stays usable after the rolled back attempts.
	mustCreate(t, ids, "fresh", ptr("fresh@example.com"), nil)
}

func testFailedCreateLeavesNothing(t *testing.T, ids store.Identities) {
	ctx := context.Background()
	login := domain.ExternalLogin{Provider: "discord", ProviderID: "7"}
	mustCreate(t, ids, "owner", nil, &login)

	_, err := ids.CreateUser(ctx, uuid.New(), "intruder", ptr("intruder@example.com"), &login)
	require.ErrorIs(t, err, store.ErrLinkProviderConflict)

	_, err = ids.Find(ctx, store.ByName("intruder"))
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = ids.Find(ctx, store.ByEmail("intruder@example.com"))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testLinkUser(t *testing.T, ids store.Identities) {
	ctx := context.Background()
	user := mustCreate(t, ids, "linker", nil, &domain.ExternalLogin{Provider: "github", ProviderID: "1"})
	other := mustCreate(t, ids, "other", nil, nil)

	gitlab := domain.ExternalLogin{Provider: "gitlab", ProviderID: "2"}
	require.NoError(t, ids.LinkUser(ctx, user.UserID, gitlab))

	found, err := ids.Find(ctx, store.ByExternalLogin(gitlab))
	require.NoError(t, err)
	require.Equal(t, user.UserID, found.UserID)

	err = ids.LinkUser(ctx, other.UserID, gitlab)
	require.ErrorIs(t, err, store.ErrLinkProviderConflict)

	err = ids.LinkUser(ctx, uuid.New(), domain.ExternalLogin{Provider: "gitlab", ProviderID: "3"})
	require.ErrorIs(t, err, store.ErrNotFound)

	links, err := ids.LinkedProviders(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, "github", links[0].Provider)
	require.Equal(t, "gitlab", links[1].Provider)
	require.Equal(t, "2", links[1].ProviderID)
	require.False(t, links[1].LinkedAt.IsZero())

	links, err = ids.LinkedProviders(ctx, other.UserID)
	require.NoError(t, err)
	require.Empty(t, links)
}

func testDeleteCascades(t *testing.T, ids store.Identities) {
	ctx := context.Background()
	login := domain.ExternalLogin{Provider: "github", ProviderID: "77"}
	user := mustCreate(t, ids, "leaving", ptr("leaving@example.com"), &login)

	require.NoError(t, ids.DeleteIdentity(ctx, user.UserID))

	_, err := ids.Find(ctx, store.ByUserID(user.UserID))
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = ids.Find(ctx, store.ByExternalLogin(login))
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, ids.DeleteIdentity(ctx, user.UserID))

	// The name, email and external login are free again.
	mustCreate(t, ids, "leaving", ptr("leaving@example.com"), &login)
}

func collect(t *testing.T, ids store.Identities, order store.OrderKind, count int) [][]domain.Identity {
	t.Helper()
	var (
		pages [][]domain.Identity
		after *store.Cursor
	)
	for {
		page, err := ids.Search(context.Background(), store.SearchIdentity{
			Order: store.SearchOrder{Kind: order, After: after},
			Count: count,
		})
		require.NoError(t, err)
		if len(page) == 0 {
			return pages
		}
		pages = append(pages, page)
		after = store.NextCursor(order, page[len(page)-1])
		require.Less(t, len(pages), 100, "pagination does not terminate")
	}
}

func names(identities []domain.Identity) []string {
	out := make([]string, len(identities))
	for i, identity := range identities {
		out[i] = identity.Name
	}
	return out
}

func testSearchPaginatesByName(t *testing.T, ids store.Identities) {
	// Insert out of order so the result order comes from the query.
	for _, i := range []int{7, 3, 10, 1, 5, 9, 2, 8, 4, 6} {
		mustCreate(t, ids, fmt.Sprintf("a%02d", i), nil, nil)
	}

	pages := collect(t, ids, store.OrderByName, 3)
	require.Len(t, pages, 4)
	require.Equal(t, []string{"a01", "a02", "a03"}, names(pages[0]))
	require.Equal(t, []string{"a04", "a05", "a06"}, names(pages[1]))
	require.Equal(t, []string{"a07", "a08", "a09"}, names(pages[2]))
	require.Equal(t, []string{"a10"}, names(pages[3]))
}

func testSearchPaginatesByUserID(t *testing.T, ids store.Identities) {
	created := make(map[uuid.UUID]bool)
	for i := range 7 {
		created[mustCreate(t, ids, fmt.Sprintf("u%d", i), nil, nil).UserID] = true
	}

	var last uuid.UUID
	seen := 0
	for _, page := range collect(t, ids, store.OrderByUserID, 2) {
		for _, identity := range page {
			require.True(t, created[identity.UserID])
			require.Greater(t, identity.UserID.String(), last.String())
			last = identity.UserID
			seen++
		}
	}
	require.Equal(t, len(created), seen)
}

func testSearchByEmailSkipsMissing(t *testing.T, ids store.Identities) {
	mustCreate(t, ids, "c", ptr("c@example.com"), nil)
	mustCreate(t, ids, "none", nil, nil)
	mustCreate(t, ids, "a", ptr("a@example.com"), nil)
	mustCreate(t, ids, "b", ptr("b@example.com"), nil)

	pages := collect(t, ids, store.OrderByEmail, 2)
	require.Len(t, pages, 2)
	require.Equal(t, []string{"a", "b"}, names(pages[0]))
	require.Equal(t, []string{"c"}, names(pages[1]))
}

func testSearchFilters(t *testing.T, ids store.Identities) {
	ctx := context.Background()
	alice := mustCreate(t, ids, "alice", ptr("alice@example.com"), nil)
	bob := mustCreate(t, ids, "bob", ptr("bob@example.com"), nil)
	mustCreate(t, ids, "carol", nil, nil)

	tests := []struct {
		name   string
		search store.SearchIdentity
		want   []string
	}{
		{"no filter", store.SearchIdentity{Order: store.SearchOrder{Kind: store.OrderByName}}, []string{"alice", "bob", "carol"}},
		{"empty filter", store.SearchIdentity{Names: []string{}}, nil},
		{"names", store.SearchIdentity{
			Order: store.SearchOrder{Kind: store.OrderByName},
			Names: []string{"carol", "alice", "nobody"},
		}, []string{"alice", "carol"}},
		{"emails", store.SearchIdentity{Emails: []string{"bob@example.com"}}, []string{"bob"}},
		{"user ids", store.SearchIdentity{UserIDs: []uuid.UUID{alice.UserID}}, []string{"alice"}},
		{"conjunction", store.SearchIdentity{
			UserIDs: []uuid.UUID{alice.UserID, bob.UserID},
			Names:   []string{"bob", "carol"},
		}, []string{"bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ids.Search(ctx, tt.search)
			require.NoError(t, err)
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, names(got))
		})
	}
}

func testSearchCapsCount(t *testing.T, ids store.Identities) {
	for i := range store.MaxSearchCount + 5 {
		mustCreate(t, ids, fmt.Sprintf("n%03d", i), nil, nil)
	}

	for _, count := range []int{0, -1, store.MaxSearchCount + 1} {
		got, err := ids.Search(context.Background(), store.SearchIdentity{Count: count})
		require.NoError(t, err)
		require.Len(t, got, store.MaxSearchCount)
	}

	got, err := ids.Search(context.Background(), store.SearchIdentity{Count: 5})
	require.NoError(t, err)
	require.Len(t, got, 5)
}
