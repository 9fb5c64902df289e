package external

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Identities resolves external users to local identities.
type Identities interface {
	LoginOrRegister(ctx context.Context, info domain.ExternalUserInfo) (domain.Identity, error)
	LinkUser(ctx context.Context, userID uuid.UUID, login domain.ExternalLogin) error
}

// TokenIssuer issues the token login that keeps a signed in user signed in.
type TokenIssuer interface {
	Generate(userID uuid.UUID, rememberMe bool) (session.TokenLogin, error)
}

// Observer is told the outcome of every finished callback.
type Observer interface {
	ExternalLogin(provider, outcome string)
}

// Flow drives the redirect round trip with external providers. All flow
// state travels in the signed external login cookie.
type Flow struct {
	registry   *Registry
	identities Identities
	tokens     TokenIssuer
	observer   Observer
}

func NewFlow(registry *Registry, identities Identities, tokens TokenIssuer) *Flow {
	return &Flow{registry: registry, identities: identities, tokens: tokens}
}

// WithObserver attaches an outcome observer, e.g. metrics.
func (f *Flow) WithObserver(o Observer) *Flow {
	f.observer = o
	return f
}

// Registry returns the providers the flow can use.
func (f *Flow) Registry() *Registry { return f.registry }

type StartRequest struct {
	TargetURL  string
	ErrorURL   string
	RememberMe bool
	// Link binds the provider account to the signed in user instead of
	// logging in.
	Link bool
}

// Start records a fresh flow in sess and returns the provider authorization
// URL to redirect the user agent to.
func (f *Flow) Start(ctx context.Context, sess *session.Session, providerName string, req StartRequest) (string, error) {
	provider, err := f.registry.Get(providerName)
	if err != nil {
		return "", flowError(err, req.ErrorURL)
	}

	var linked *session.CurrentUser
	switch {
	case req.Link && sess.User == nil:
		return "", flowError(ErrLoginRequired, req.ErrorURL)
	case req.Link:
		u := *sess.User
		linked = &u
	case sess.User != nil:
		return "", flowError(ErrLogoutRequired, req.ErrorURL)
	}

	csrf, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", flowError(err, req.ErrorURL)
	}
	var nonce string
	if provider.Kind() == KindOIDC {
		if nonce, err = cryptox.GenerateToken(cryptox.TokenSize128); err != nil {
			return "", flowError(err, req.ErrorURL)
		}
	}
	verifier := oauth2.GenerateVerifier()

	sess.ExternalLogin = &session.ExternalLogin{
		PKCEVerifier: verifier,
		CSRFState:    csrf,
		Nonce:        nonce,
		TargetURL:    req.TargetURL,
		ErrorURL:     req.ErrorURL,
		RememberMe:   req.RememberMe && !req.Link,
		LinkedUser:   linked,
	}

	slogx.FromContext(ctx).Debug("external login started",
		"provider", providerName, "kind", provider.Kind().String(), "link", req.Link)

	return provider.AuthCodeURL(csrf, verifier, nonce), nil
}

type CallbackRequest struct {
	Code  string
	State string
	// Error is the error code the provider reports instead of a code.
	Error string
}

type ResultKind int

const (
	ResultLoggedIn ResultKind = iota + 1
	ResultLinked
)

type Result struct {
	Kind       ResultKind
	Identity   domain.Identity // set for ResultLoggedIn
	UserInfo   domain.ExternalUserInfo
	TargetURL  string
	RememberMe bool
}

// Callback finishes the flow. The external login is removed from sess
// before anything is checked so that it can never be replayed. Errors are
// wrapped in *Error carrying the flow's error page.
func (f *Flow) Callback(ctx context.Context, sess *session.Session, providerName string, req CallbackRequest) (Result, error) {
	res, err := f.callback(ctx, sess, providerName, req)
	if f.observer != nil && !errors.Is(err, ErrUnknownProvider) {
		f.observer.ExternalLogin(providerName, outcome(res, err))
	}
	return res, err
}

func (f *Flow) callback(ctx context.Context, sess *session.Session, providerName string, req CallbackRequest) (Result, error) {
	log := slogx.FromContext(ctx).With("provider", providerName)

	state := sess.TakeExternalLogin()
	if state == nil {
		return Result{}, flowError(ErrMissingExternalLogin, "")
	}
	fail := func(err error) (Result, error) {
		return Result{}, flowError(err, state.ErrorURL)
	}

	provider, err := f.registry.Get(providerName)
	if err != nil {
		return fail(err)
	}

	if subtle.ConstantTimeCompare([]byte(req.State), []byte(state.CSRFState)) != 1 {
		log.Debug("csrf check failed")
		return fail(ErrInvalidCSRF)
	}
	if provider.Kind() == KindOIDC && state.Nonce == "" {
		return fail(ErrMissingNonce)
	}
	if req.Error != "" {
		return fail(fmt.Errorf("%w: %s", ErrProviderDenied, req.Error))
	}

	token, err := provider.Exchange(ctx, req.Code, state.PKCEVerifier)
	if err != nil {
		return fail(fmt.Errorf("exchange code with %s: %w", providerName, err))
	}

	info, err := provider.UserInfo(ctx, token, state.Nonce)
	if err != nil {
		log.Info("failed to resolve external user info", "err", err)
		return fail(fmt.Errorf("%w: %w", ErrFailedExternalUserInfo, err))
	}
	log.Debug("external user resolved", "provider_id", info.ProviderID)

	if state.LinkedUser != nil {
		if err := f.identities.LinkUser(ctx, state.LinkedUser.UserID, info.Login()); err != nil {
			return fail(err)
		}
		return Result{Kind: ResultLinked, UserInfo: info, TargetURL: state.TargetURL}, nil
	}

	identity, err := f.identities.LoginOrRegister(ctx, info)
	if err != nil {
		return fail(err)
	}

	tok, err := f.tokens.Generate(identity.UserID, state.RememberMe)
	if err != nil {
		return fail(err)
	}
	sess.SignIn(session.CurrentUser{UserID: identity.UserID, Name: identity.Name}, tok)

	return Result{
		Kind:       ResultLoggedIn,
		Identity:   identity,
		UserInfo:   info,
		TargetURL:  state.TargetURL,
		RememberMe: state.RememberMe,
	}, nil
}

func outcome(res Result, err error) string {
	switch {
	case err == nil && res.Kind == ResultLinked:
		return "linked"
	case err == nil:
		return "logged_in"
	case errors.Is(err, ErrMissingExternalLogin):
		return "missing_external_login"
	case errors.Is(err, ErrInvalidCSRF):
		return "invalid_csrf"
	case errors.Is(err, ErrMissingNonce):
		return "missing_nonce"
	case errors.Is(err, ErrProviderDenied):
		return "denied"
	case errors.Is(err, ErrFailedExternalUserInfo):
		return "failed_user_info"
	default:
		return "error"
	}
}
