package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestMeta(t *testing.T, now time.Time) *Meta {
	t.Helper()
	meta, err := NewMeta("https://example.com", "https://auth.example.com/identity", testConfig(t))
	require.NoError(t, err)
	return meta.WithClock(func() time.Time { return now })
}

// roundTrip writes s and feeds the resulting cookies into a new request.
func roundTrip(t *testing.T, meta *Meta, s *Session) *Session {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, s.Write(rec))

	req := httptest.NewRequest(http.MethodGet, "https://auth.example.com/identity/auth/userinfo", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return meta.Decode(req)
}

func TestSessionRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meta := newTestMeta(t, now)
	userID := uuid.New()

	s := meta.New()
	s.SignIn(
		CurrentUser{UserID: userID, Name: "alice"},
		TokenLogin{UserID: userID, Token: "tok", Expires: now.Add(time.Hour)},
	)
	s.ExternalLogin = &ExternalLogin{
		PKCEVerifier: "verifier",
		CSRFState:    "csrf",
		Nonce:        "nonce",
		TargetURL:    "https://example.com/home",
		LinkedUser:   &CurrentUser{UserID: userID, Name: "alice"},
	}

	got := roundTrip(t, meta, s)
	require.Equal(t, s.User, got.User)
	require.Equal(t, s.ExternalLogin, got.ExternalLogin)
	require.Equal(t, s.TokenLogin.UserID, got.TokenLogin.UserID)
	require.Equal(t, "tok", got.TokenLogin.Token)
	require.True(t, s.TokenLogin.Expires.Equal(got.TokenLogin.Expires))
}

func TestSessionCookieAttributes(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meta := newTestMeta(t, now)
	userID := uuid.New()

	t.Run("empty session expires all cookies", func(t *testing.T) {
		cookies, err := meta.New().Cookies()
		require.NoError(t, err)
		require.Len(t, cookies, 3)
		for _, c := range cookies {
			require.Empty(t, c.Value)
			require.Equal(t, -1, c.MaxAge)
			require.True(t, c.Expires.Before(now))
			require.True(t, c.Secure)
			require.True(t, c.HttpOnly)
			require.Equal(t, http.SameSiteLaxMode, c.SameSite)
		}
	})

	t.Run("session lifetime without remember me", func(t *testing.T) {
		s := meta.New()
		s.SignIn(CurrentUser{UserID: userID}, TokenLogin{UserID: userID, Expires: now.Add(time.Hour)})
		cookies, err := s.Cookies()
		require.NoError(t, err)

		user, external, token := cookies[0], cookies[1], cookies[2]
		require.NotEmpty(t, user.Value)
		require.True(t, user.Expires.IsZero())
		require.Equal(t, "example.com", user.Domain)
		require.Equal(t, "/", user.Path)

		require.Empty(t, external.Value)
		require.Equal(t, "auth.example.com", external.Domain)
		require.Equal(t, "/identity", external.Path)

		require.NotEmpty(t, token.Value)
		require.True(t, token.Expires.IsZero())
	})

	t.Run("remember me persists until token expiry", func(t *testing.T) {
		expires := now.Add(24 * time.Hour)
		s := meta.New()
		s.SignIn(CurrentUser{UserID: userID}, TokenLogin{UserID: userID, Expires: expires, RememberMe: true})
		cookies, err := s.Cookies()
		require.NoError(t, err)

		require.True(t, cookies[0].Expires.Equal(expires))
		require.True(t, cookies[2].Expires.Equal(expires))
		require.Zero(t, cookies[2].MaxAge)
	})

	t.Run("write always emits three headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, meta.New().Write(rec))
		require.Len(t, rec.Result().Header.Values("Set-Cookie"), 3)
	})
}

func TestSessionSelfHealing(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	// Cookies are minted an hour earlier, when the token was still valid.
	issuer := newTestMeta(t, now.Add(-time.Hour))
	s := issuer.New()
	s.SignIn(CurrentUser{UserID: userID}, TokenLogin{UserID: userID, Expires: now.Add(-time.Minute)})

	rec := httptest.NewRecorder()
	require.NoError(t, s.Write(rec))

	reader := issuer.WithClock(func() time.Time { return now })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	got := reader.Decode(req)
	require.Nil(t, got.TokenLogin, "expired token must be dropped")
	require.Nil(t, got.User, "user must not outlive its token")
}

func TestSessionRejectsTampering(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meta := newTestMeta(t, now)
	userID := uuid.New()

	s := meta.New()
	s.SignIn(CurrentUser{UserID: userID}, TokenLogin{UserID: userID, Expires: now.Add(time.Hour)})
	cookies, err := s.Cookies()
	require.NoError(t, err)
	userName, _, tokenName := meta.CookieNames()

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: userName, Value: "garbage"})
		req.AddCookie(&http.Cookie{Name: tokenName, Value: cookies[2].Value})
		got := meta.Decode(req)
		require.Nil(t, got.User)
		require.NotNil(t, got.TokenLogin)
	})

	t.Run("value moved to another cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokenName, Value: cookies[0].Value})
		got := meta.Decode(req)
		require.Nil(t, got.TokenLogin)
	})

	t.Run("signed with other secrets", func(t *testing.T) {
		other := newTestMeta(t, now)
		forged := other.New()
		forged.SignIn(CurrentUser{UserID: userID}, TokenLogin{UserID: userID, Expires: now.Add(time.Hour)})
		forgedCookies, err := forged.Cookies()
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range forgedCookies {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
		got := meta.Decode(req)
		require.Nil(t, got.User)
		require.Nil(t, got.TokenLogin)
	})

	t.Run("stale duplicate does not shadow the valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: userName, Value: "stale"})
		req.AddCookie(&http.Cookie{Name: userName, Value: cookies[0].Value})
		req.AddCookie(&http.Cookie{Name: tokenName, Value: cookies[2].Value})
		got := meta.Decode(req)
		require.NotNil(t, got.User)
	})
}

func TestTakeExternalLogin(t *testing.T) {
	s := newTestMeta(t, time.Now()).New()
	s.ExternalLogin = &ExternalLogin{CSRFState: "x"}

	e := s.TakeExternalLogin()
	require.Equal(t, "x", e.CSRFState)
	require.Nil(t, s.ExternalLogin)
	require.Nil(t, s.TakeExternalLogin())
}

func TestClear(t *testing.T) {
	userID := uuid.New()
	s := newTestMeta(t, time.Now()).New()
	s.SignIn(CurrentUser{UserID: userID}, TokenLogin{UserID: userID})
	s.ExternalLogin = &ExternalLogin{}

	s.Clear()
	require.Nil(t, s.User)
	require.Nil(t, s.ExternalLogin)
	require.Nil(t, s.TokenLogin)
}
