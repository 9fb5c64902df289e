package session

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/gorilla/securecookie"
)

var (
	ErrMissingHomeDomain = errors.New("session: missing or invalid domain for application home")
	ErrMissingDomain     = errors.New("session: missing domain for auth scope")
	ErrInvalidAPIDomain  = errors.New("session: auth api domain shall be a subdomain of the application")
	ErrInvalidSecret     = errors.New("session: invalid session secret")
)

// External login state only has to survive one provider round trip.
const externalLoginMaxAge = time.Hour

// Config holds the cookie secrets, each a standard base64 string of at least
// 32 bytes, and an optional suffix appended to every cookie name.
type Config struct {
	CookieNameSuffix    string
	SessionSecret       string
	ExternalLoginSecret string
	TokenLoginSecret    string
}

type cookieSettings struct {
	name   string
	domain string
	path   string
	codec  *securecookie.SecureCookie
}

// Meta holds the immutable cookie settings shared by all requests.
type Meta struct {
	user          cookieSettings
	externalLogin cookieSettings
	tokenLogin    cookieSettings

	now func() time.Time
}

// NewMeta validates the home and auth base URLs and derives the cookie keys.
// The user cookie is scoped to the home domain; the external and token login
// cookies are confined to the auth domain and base path.
func NewMeta(homeURL, authBaseURL string, cfg Config) (*Meta, error) {
	homeDomain, ok := domainOf(homeURL)
	if !ok {
		return nil, ErrMissingHomeDomain
	}
	authDomain, ok := domainOf(authBaseURL)
	if !ok {
		return nil, ErrMissingDomain
	}
	if authDomain != homeDomain && !strings.HasSuffix(authDomain, "."+homeDomain) {
		return nil, fmt.Errorf("%w: %q is not within %q", ErrInvalidAPIDomain, authDomain, homeDomain)
	}

	authPath := "/"
	if u, _ := url.Parse(authBaseURL); strings.TrimRight(u.Path, "/") != "" {
		authPath = strings.TrimRight(u.Path, "/")
	}

	user, err := newCookieSettings("sid"+cfg.CookieNameSuffix, "user", cfg.SessionSecret, 0)
	if err != nil {
		return nil, err
	}
	user.domain, user.path = homeDomain, "/"

	external, err := newCookieSettings("eid"+cfg.CookieNameSuffix, "external-login", cfg.ExternalLoginSecret, externalLoginMaxAge)
	if err != nil {
		return nil, err
	}
	external.domain, external.path = authDomain, authPath

	token, err := newCookieSettings("tid"+cfg.CookieNameSuffix, "token-login", cfg.TokenLoginSecret, 0)
	if err != nil {
		return nil, err
	}
	token.domain, token.path = authDomain, authPath

	return &Meta{
		user:          user,
		externalLogin: external,
		tokenLogin:    token,
		now:           time.Now,
	}, nil
}

// WithClock replaces the clock used for token expiry checks.
func (m *Meta) WithClock(now func() time.Time) *Meta {
	m.now = now
	return m
}

// CookieNames returns the user, external login and token login cookie names.
func (m *Meta) CookieNames() (user, externalLogin, tokenLogin string) {
	return m.user.name, m.externalLogin.name, m.tokenLogin.name
}

// HomeDomain is the domain the user cookie is scoped to. Redirect targets
// outside of it are not trusted.
func (m *Meta) HomeDomain() string { return m.user.domain }

// domainOf returns the lower-cased DNS name of raw. IP hosts do not count as
// a domain.
func domainOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || net.ParseIP(host) != nil {
		return "", false
	}
	return host, true
}

// newCookieSettings derives independent signing and encryption keys for one
// cookie from its secret. A maxAge of zero disables the timestamp check.
func newCookieSettings(name, purpose, secret string, maxAge time.Duration) (cookieSettings, error) {
	raw, err := cryptox.DecodeSecret(secret)
	if err != nil {
		return cookieSettings{}, fmt.Errorf("%w (%s): %w", ErrInvalidSecret, purpose, err)
	}

	hashKey, err := cryptox.DeriveKey(raw, "identity/"+purpose+"/hash", 64)
	if err != nil {
		return cookieSettings{}, err
	}
	blockKey, err := cryptox.DeriveKey(raw, "identity/"+purpose+"/block", 32)
	if err != nil {
		return cookieSettings{}, err
	}

	codec := securecookie.New(hashKey, blockKey).
		SetSerializer(securecookie.JSONEncoder{}).
		MaxAge(int(maxAge / time.Second))

	return cookieSettings{name: name, codec: codec}, nil
}
