package external

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type flowFixture struct {
	flow       *Flow
	oauth      *fakeProvider
	oidc       *fakeProvider
	identities *fakeIdentities
	observer   countingObserver
	meta       *session.Meta
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	now := time.Now()

	secret := func() string {
		s, err := cryptox.NewSecret(cryptox.TokenSize512)
		require.NoError(t, err)
		return s
	}
	meta, err := session.NewMeta("https://example.com", "https://auth.example.com", session.Config{
		SessionSecret:       secret(),
		ExternalLoginSecret: secret(),
		TokenLoginSecret:    secret(),
	})
	require.NoError(t, err)

	name := "gh-user"
	f := &flowFixture{
		oauth: &fakeProvider{name: "github", kind: KindOAuth2, userInfo: domain.ExternalUserInfo{
			ProviderID: "1234",
			Name:       &name,
		}},
		oidc: &fakeProvider{name: "google", kind: KindOIDC, userInfo: domain.ExternalUserInfo{
			ProviderID: "sub-1",
		}},
		identities: &fakeIdentities{identity: domain.Identity{UserID: uuid.New(), Name: "gh-user"}},
		observer:   countingObserver{},
		meta:       meta,
	}

	registry, err := NewRegistry(f.oauth, f.oidc)
	require.NoError(t, err)
	f.flow = NewFlow(registry, f.identities, fakeTokens{now: now}).WithObserver(f.observer)
	return f
}

func signedIn(s *session.Session, userID uuid.UUID) {
	s.SignIn(session.CurrentUser{UserID: userID, Name: "me"}, session.TokenLogin{UserID: userID, Token: "t"})
}

func stateOf(t *testing.T, authURL string) url.Values {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query()
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("oauth2 login", func(t *testing.T) {
		f := newFlowFixture(t)
		s := f.meta.New()

		authURL, err := f.flow.Start(ctx, s, "github", StartRequest{
			TargetURL:  "https://example.com/home",
			ErrorURL:   "https://example.com/error",
			RememberMe: true,
		})
		require.NoError(t, err)

		e := s.ExternalLogin
		require.NotNil(t, e)
		require.NotEmpty(t, e.CSRFState)
		require.NotEmpty(t, e.PKCEVerifier)
		require.Empty(t, e.Nonce, "plain oauth2 has no nonce")
		require.True(t, e.RememberMe)
		require.Nil(t, e.LinkedUser)
		require.Equal(t, "https://example.com/home", e.TargetURL)

		q := stateOf(t, authURL)
		require.Equal(t, e.CSRFState, q.Get("state"))
		require.NotEqual(t, e.PKCEVerifier, q.Get("code_challenge"), "verifier must not leak")
	})

	t.Run("oidc login carries a nonce", func(t *testing.T) {
		f := newFlowFixture(t)
		s := f.meta.New()

		authURL, err := f.flow.Start(ctx, s, "google", StartRequest{})
		require.NoError(t, err)
		require.NotEmpty(t, s.ExternalLogin.Nonce)
		require.Equal(t, s.ExternalLogin.Nonce, stateOf(t, authURL).Get("nonce"))
	})

	t.Run("each start is fresh", func(t *testing.T) {
		f := newFlowFixture(t)
		s := f.meta.New()

		_, err := f.flow.Start(ctx, s, "github", StartRequest{})
		require.NoError(t, err)
		first := *s.ExternalLogin
		_, err = f.flow.Start(ctx, s, "github", StartRequest{})
		require.NoError(t, err)
		require.NotEqual(t, first.CSRFState, s.ExternalLogin.CSRFState)
		require.NotEqual(t, first.PKCEVerifier, s.ExternalLogin.PKCEVerifier)
	})

	t.Run("login while signed in", func(t *testing.T) {
		f := newFlowFixture(t)
		s := f.meta.New()
		signedIn(s, uuid.New())

		_, err := f.flow.Start(ctx, s, "github", StartRequest{ErrorURL: "https://example.com/error"})
		require.ErrorIs(t, err, ErrLogoutRequired)
		require.Equal(t, "https://example.com/error", ErrorURL(err))
		require.Nil(t, s.ExternalLogin)
	})

	t.Run("link records the current user", func(t *testing.T) {
		f := newFlowFixture(t)
		s := f.meta.New()
		userID := uuid.New()
		signedIn(s, userID)

		_, err := f.flow.Start(ctx, s, "github", StartRequest{Link: true, RememberMe: true})
		require.NoError(t, err)
		require.Equal(t, userID, s.ExternalLogin.LinkedUser.UserID)
		require.False(t, s.ExternalLogin.RememberMe)
	})

	t.Run("link requires a user", func(t *testing.T) {
		f := newFlowFixture(t)
		_, err := f.flow.Start(ctx, f.meta.New(), "github", StartRequest{Link: true})
		require.ErrorIs(t, err, ErrLoginRequired)
	})

	t.Run("unknown provider", func(t *testing.T) {
		f := newFlowFixture(t)
		_, err := f.flow.Start(ctx, f.meta.New(), "myspace", StartRequest{})
		require.ErrorIs(t, err, ErrUnknownProvider)
	})
}

// started returns a session holding a flow started against provider.
func started(t *testing.T, f *flowFixture, provider string, req StartRequest, user *uuid.UUID) *session.Session {
	t.Helper()
	s := f.meta.New()
	if user != nil {
		signedIn(s, *user)
	}
	_, err := f.flow.Start(context.Background(), s, provider, req)
	require.NoError(t, err)
	return s
}

func TestCallbackLogin(t *testing.T) {
	f := newFlowFixture(t)
	s := started(t, f, "github", StartRequest{TargetURL: "https://example.com/home", RememberMe: true}, nil)
	state := *s.ExternalLogin

	res, err := f.flow.Callback(context.Background(), s, "github", CallbackRequest{Code: "c", State: state.CSRFState})
	require.NoError(t, err)

	require.Equal(t, ResultLoggedIn, res.Kind)
	require.Equal(t, "https://example.com/home", res.TargetURL)
	require.True(t, res.RememberMe)
	require.Equal(t, []string{state.PKCEVerifier}, f.oauth.exchanged)
	require.Len(t, f.identities.logins, 1)
	require.Equal(t, "github", f.identities.logins[0].Provider)
	require.Equal(t, "1234", f.identities.logins[0].ProviderID)

	require.Nil(t, s.ExternalLogin)
	require.Equal(t, f.identities.identity.UserID, s.User.UserID)
	require.Equal(t, s.User.UserID, s.TokenLogin.UserID)
	require.True(t, s.TokenLogin.RememberMe)
	require.Equal(t, 1, f.observer["github/logged_in"])
}

func TestCallbackLink(t *testing.T) {
	f := newFlowFixture(t)
	userID := uuid.New()
	s := started(t, f, "google", StartRequest{Link: true}, &userID)
	state := *s.ExternalLogin

	res, err := f.flow.Callback(context.Background(), s, "google", CallbackRequest{Code: "c", State: state.CSRFState})
	require.NoError(t, err)
	require.Equal(t, ResultLinked, res.Kind)

	require.Equal(t, []linkCall{{
		userID: userID,
		login:  domain.ExternalLogin{Provider: "google", ProviderID: "sub-1"},
	}}, f.identities.links)
	require.Empty(t, f.identities.logins)
	require.Equal(t, []string{state.Nonce}, f.oidc.nonces)
	require.Equal(t, userID, s.User.UserID, "linking keeps the current user")
	require.Equal(t, 1, f.observer["google/linked"])
}

func TestCallbackFailures(t *testing.T) {
	ctx := context.Background()
	errorURL := "https://example.com/error"

	t.Run("no flow in progress", func(t *testing.T) {
		f := newFlowFixture(t)
		_, err := f.flow.Callback(ctx, f.meta.New(), "github", CallbackRequest{Code: "c", State: "x"})
		require.ErrorIs(t, err, ErrMissingExternalLogin)
		require.Empty(t, ErrorURL(err))
	})

	t.Run("csrf mismatch clears the flow", func(t *testing.T) {
		f := newFlowFixture(t)
		s := started(t, f, "github", StartRequest{ErrorURL: errorURL}, nil)
		s.ExternalLogin.CSRFState = "y"

		_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "valid", State: "x"})
		require.ErrorIs(t, err, ErrInvalidCSRF)
		require.Equal(t, errorURL, ErrorURL(err))
		require.Nil(t, s.ExternalLogin)
		require.Empty(t, f.oauth.exchanged, "code must not be exchanged")
		require.Equal(t, 1, f.observer["github/invalid_csrf"])

		// The flow is single use: replaying with the right state fails too.
		_, err = f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "valid", State: "y"})
		require.ErrorIs(t, err, ErrMissingExternalLogin)
	})

	t.Run("csrf state must match exactly", func(t *testing.T) {
		for _, mutate := range []func(string) string{
			func(string) string { return "" },
			func(s string) string { return s[:len(s)-1] + string(s[len(s)-1]^1) },
			func(s string) string { return s + "x" },
		} {
			f := newFlowFixture(t)
			s := started(t, f, "github", StartRequest{}, nil)

			_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "c", State: mutate(s.ExternalLogin.CSRFState)})
			require.ErrorIs(t, err, ErrInvalidCSRF)
			require.Empty(t, f.oauth.exchanged)
		}
	})

	t.Run("oidc flow without nonce", func(t *testing.T) {
		f := newFlowFixture(t)
		s := started(t, f, "google", StartRequest{}, nil)
		s.ExternalLogin.Nonce = ""

		_, err := f.flow.Callback(ctx, s, "google", CallbackRequest{Code: "c", State: s.ExternalLogin.CSRFState})
		require.ErrorIs(t, err, ErrMissingNonce)
		require.Empty(t, f.oidc.exchanged)
	})

	t.Run("provider denied", func(t *testing.T) {
		f := newFlowFixture(t)
		s := started(t, f, "github", StartRequest{}, nil)

		_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{State: s.ExternalLogin.CSRFState, Error: "access_denied"})
		require.ErrorIs(t, err, ErrProviderDenied)
		require.Empty(t, f.oauth.exchanged)
	})

	t.Run("exchange failure is an infrastructure error", func(t *testing.T) {
		f := newFlowFixture(t)
		f.oauth.exchangeErr = errBoom
		s := started(t, f, "github", StartRequest{ErrorURL: errorURL}, nil)

		_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "c", State: s.ExternalLogin.CSRFState})
		require.ErrorIs(t, err, errBoom)
		require.NotErrorIs(t, err, ErrFailedExternalUserInfo)
		require.Equal(t, errorURL, ErrorURL(err))
		require.Equal(t, 1, f.observer["github/error"])
	})

	t.Run("user info failure", func(t *testing.T) {
		f := newFlowFixture(t)
		f.oauth.userInfoErr = errBoom
		s := started(t, f, "github", StartRequest{}, nil)

		_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "c", State: s.ExternalLogin.CSRFState})
		require.ErrorIs(t, err, ErrFailedExternalUserInfo)
		require.Nil(t, s.User)
	})

	t.Run("link conflict", func(t *testing.T) {
		f := newFlowFixture(t)
		f.identities.linkErr = store.ErrLinkProviderConflict
		userID := uuid.New()
		s := started(t, f, "github", StartRequest{ErrorURL: errorURL, Link: true}, &userID)

		_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "c", State: s.ExternalLogin.CSRFState})
		require.ErrorIs(t, err, store.ErrLinkProviderConflict)
		require.Equal(t, errorURL, ErrorURL(err))
	})

	t.Run("login conflict leaves the session signed out", func(t *testing.T) {
		f := newFlowFixture(t)
		f.identities.loginErr = store.ErrLinkEmailConflict
		s := started(t, f, "github", StartRequest{}, nil)

		_, err := f.flow.Callback(ctx, s, "github", CallbackRequest{Code: "c", State: s.ExternalLogin.CSRFState})
		require.ErrorIs(t, err, store.ErrLinkEmailConflict)
		require.Nil(t, s.User)
		require.Nil(t, s.TokenLogin)
	})
}
