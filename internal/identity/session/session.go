package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// Session is the request-local view of the three session cookies. It is
// rebuilt from the request on every call and never shared between requests.
type Session struct {
	User          *CurrentUser
	ExternalLogin *ExternalLogin
	TokenLogin    *TokenLogin

	meta *Meta
}

// New returns an empty session bound to m, as if no cookie was sent.
func (m *Meta) New() *Session {
	return &Session{meta: m}
}

// Decode reads the three cookies from r. A missing, tampered or undecodable
// cookie only leaves its component empty; decoding never fails.
func (m *Meta) Decode(r *http.Request) *Session {
	log := slogx.FromContext(r.Context())

	var (
		user     *CurrentUser
		external *ExternalLogin
		token    *TokenLogin
	)
	if v := new(CurrentUser); m.user.decode(r, v) {
		user = v
	}
	if v := new(ExternalLogin); m.externalLogin.decode(r, v) {
		external = v
	}
	if v := new(TokenLogin); m.tokenLogin.decode(r, v) {
		token = v
	}

	log.Debug("session before validation",
		"user", user != nil, "external_login", external != nil, "token_login", token != nil)

	user, external, token = Validate(m.now(), user, external, token)

	log.Debug("session after validation",
		"user", user != nil, "external_login", external != nil, "token_login", token != nil)

	return &Session{
		User:          user,
		ExternalLogin: external,
		TokenLogin:    token,
		meta:          m,
	}
}

// decode tries every cookie carrying the name, since a stale cookie set for
// another domain or path may be sent alongside the current one.
func (c cookieSettings) decode(r *http.Request, dst any) bool {
	for _, cookie := range r.Cookies() {
		if cookie.Name != c.name || cookie.Value == "" {
			continue
		}
		if err := c.codec.Decode(c.name, cookie.Value, dst); err == nil {
			return true
		}
	}
	return false
}

// Clear drops all three components; the next Write expires every cookie.
func (s *Session) Clear() {
	s.User = nil
	s.ExternalLogin = nil
	s.TokenLogin = nil
}

// SignIn replaces the session with an authenticated user. The token login
// must belong to the same user or the session would not survive the next
// request.
func (s *Session) SignIn(user CurrentUser, token TokenLogin) {
	s.User = &user
	s.TokenLogin = &token
	s.ExternalLogin = nil
}

// TakeExternalLogin removes and returns the in-flight external login, making
// it single use whatever the outcome of the flow.
func (s *Session) TakeExternalLogin() *ExternalLogin {
	e := s.ExternalLogin
	s.ExternalLogin = nil
	return e
}

// Cookies encodes the session into exactly three cookies, in user, external
// login, token login order. Absent components become expired cookies so that
// any stale value on the client is removed.
func (s *Session) Cookies() ([]*http.Cookie, error) {
	m := s.meta
	now := m.now()

	// Without remember me the session ends with the browser.
	var persistUntil time.Time
	if s.TokenLogin != nil && s.TokenLogin.RememberMe {
		persistUntil = s.TokenLogin.Expires
	}

	user, err := m.user.cookie(s.User, s.User != nil, persistUntil, now)
	if err != nil {
		return nil, err
	}
	external, err := m.externalLogin.cookie(s.ExternalLogin, s.ExternalLogin != nil, time.Time{}, now)
	if err != nil {
		return nil, err
	}
	token, err := m.tokenLogin.cookie(s.TokenLogin, s.TokenLogin != nil, persistUntil, now)
	if err != nil {
		return nil, err
	}
	return []*http.Cookie{user, external, token}, nil
}

// Write adds the three Set-Cookie headers to w.
func (s *Session) Write(w http.ResponseWriter) error {
	cookies, err := s.Cookies()
	if err != nil {
		return err
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
	return nil
}

func (c cookieSettings) cookie(value any, present bool, expires, now time.Time) (*http.Cookie, error) {
	cookie := &http.Cookie{
		Name:     c.name,
		Domain:   c.domain,
		Path:     c.path,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	if !present {
		cookie.MaxAge = -1
		cookie.Expires = now.Add(-24 * time.Hour)
		return cookie, nil
	}

	encoded, err := c.codec.Encode(c.name, value)
	if err != nil {
		return nil, fmt.Errorf("session: encode %s cookie: %w", c.name, err)
	}
	cookie.Value = encoded
	cookie.Expires = expires
	return cookie, nil
}
