package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

var errInvalidRedirectURL = errors.New("invalid redirect url")

// pages renders the outcome of the browser facing endpoints: a redirect to
// the requested page, or to the caller's error page with the error type and
// status in the query. Without a usable error page errors are written as
// JSON.
type pages struct {
	home       *url.URL
	homeDomain string
}

func newPages(homeURL string, meta *session.Meta) (*pages, error) {
	home, ok := httpx.AbsoluteURL(homeURL)
	if !ok {
		return nil, session.ErrMissingHomeDomain
	}
	return &pages{home: home, homeDomain: meta.HomeDomain()}, nil
}

// target validates a caller supplied redirect. Only absolute http(s) URLs
// within the home domain are accepted; an empty value is accepted and left
// empty.
func (p *pages) target(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	u, ok := httpx.AbsoluteURL(raw)
	if !ok || !withinDomain(u.Hostname(), p.homeDomain) {
		return "", errInvalidRedirectURL
	}
	return u.String(), nil
}

// redirects validates the redirectUrl and errorUrl query parameters. It
// writes the error response itself when one is invalid.
func (p *pages) redirects(w http.ResponseWriter, r *http.Request, sess *session.Session) (targetURL, errorURL string, ok bool) {
	q := r.URL.Query()
	errorURL, err := p.target(q.Get("errorUrl"))
	if err != nil {
		p.fail(w, r, sess, "", err)
		return "", "", false
	}
	targetURL, err = p.target(q.Get("redirectUrl"))
	if err != nil {
		p.fail(w, r, sess, errorURL, err)
		return "", "", false
	}
	return targetURL, errorURL, true
}

func withinDomain(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// redirect writes the session and sends the user agent to target, or home
// when target is empty.
func (p *pages) redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, target string) {
	if target == "" {
		target = p.home.String()
	}
	if err := sess.Write(w); err != nil {
		p.internalError(w, r, err)
		return
	}
	httpx.Redirect(w, r, target)
}

// fail reports err to the error page. The session is still written so that
// consumed or invalid components are removed from the client.
func (p *pages) fail(w http.ResponseWriter, r *http.Request, sess *session.Session, errorURL string, err error) {
	e := errorFor(err)
	if e.Type == identitysdk.ErrorTypeInternalError {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
	} else {
		slogx.FromContext(r.Context()).Info("request rejected", "type", e.Type, "err", err)
	}

	if sess != nil {
		if werr := sess.Write(w); werr != nil {
			p.internalError(w, r, werr)
			return
		}
	}

	if u, ok := httpx.AbsoluteURL(errorURL); ok && withinDomain(u.Hostname(), p.homeDomain) {
		httpx.Redirect(w, r, e.RedirectURL(u))
		return
	}
	e.WriteError(w)
}

func (p *pages) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", "err", err)
	identitysdk.NewError(identitysdk.ErrorTypeInternalError).WriteError(w)
}

// errorFor maps an error to the type reported to the client. Anything
// unexpected is an internal error; its details stay in the log.
func errorFor(err error) *identitysdk.Error {
	var t string
	switch {
	case errors.Is(err, errInvalidRedirectURL):
		t = identitysdk.ErrorTypeInvalidRedirectURL
	case errors.Is(err, external.ErrUnknownProvider):
		t = identitysdk.ErrorTypeUnknownProvider
	case errors.Is(err, external.ErrLogoutRequired):
		t = identitysdk.ErrorTypeLogoutRequired
	case errors.Is(err, external.ErrLoginRequired):
		t = identitysdk.ErrorTypeLoginRequired
	case errors.Is(err, external.ErrMissingExternalLogin):
		t = identitysdk.ErrorTypeMissingExternalLogin
	case errors.Is(err, external.ErrInvalidCSRF):
		t = identitysdk.ErrorTypeInvalidCSRF
	case errors.Is(err, external.ErrMissingNonce):
		t = identitysdk.ErrorTypeMissingNonce
	case errors.Is(err, external.ErrProviderDenied):
		t = identitysdk.ErrorTypeProviderDenied
	case errors.Is(err, external.ErrFailedExternalUserInfo):
		t = identitysdk.ErrorTypeFailedExternalUserInfo
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		t = identitysdk.ErrorTypeEmailAlreadyUsed
	case errors.Is(err, service.ErrProviderLinked):
		t = identitysdk.ErrorTypeProviderAlreadyUsed
	case errors.Is(err, service.ErrUserNotFound):
		t = identitysdk.ErrorTypeUserNotFound
	default:
		t = identitysdk.ErrorTypeInternalError
	}
	return identitysdk.NewError(t)
}
