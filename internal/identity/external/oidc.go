package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig describes an OpenID Connect provider. DiscoveryURL is the
// issuer; the provider metadata is read from its well-known document.
type OIDCConfig struct {
	DiscoveryURL string   `json:"discoveryUrl"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	Scopes       []string `json:"scopes"`
	RedirectURL  string   `json:"redirectUrl"`
}

type OIDCClient struct {
	name       string
	config     oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

var _ Provider = (*OIDCClient)(nil)

// NewOIDCClient runs discovery against the issuer. Failing discovery is a
// startup error.
func NewOIDCClient(ctx context.Context, name string, cfg OIDCConfig, httpClient *http.Client) (*OIDCClient, error) {
	if err := validateURL(cfg.DiscoveryURL); err != nil {
		return nil, fmt.Errorf("%w: %s discoveryUrl: %w", ErrProviderConfig, name, err)
	}
	if err := validateURL(cfg.RedirectURL); err != nil {
		return nil, fmt.Errorf("%w: %s redirectUrl: %w", ErrProviderConfig, name, err)
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: %s: missing clientId", ErrProviderConfig, name)
	}

	httpClient = httpClientOrDefault(httpClient)
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.DiscoveryURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDiscovery, name, err)
	}

	scopes := cfg.Scopes
	if !slices.Contains(scopes, oidc.ScopeOpenID) {
		scopes = append([]string{oidc.ScopeOpenID}, scopes...)
	}

	return &OIDCClient{
		name: name,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient: httpClient,
	}, nil
}

func (c *OIDCClient) Name() string { return c.name }
func (c *OIDCClient) Kind() Kind   { return KindOIDC }
func (c *OIDCClient) sealed()      {}

func (c *OIDCClient) AuthCodeURL(state, verifier, nonce string) string {
	return c.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier), oidc.Nonce(nonce))
}

func (c *OIDCClient) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	return c.config.Exchange(withHTTPClient(ctx, c.httpClient), code, oauth2.VerifierOption(verifier))
}

type idTokenClaims struct {
	Nickname          string `json:"nickname"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

var errNonceMismatch = errors.New("id token nonce mismatch")

// UserInfo verifies the ID token (signature, issuer, audience, expiry) and
// its nonce before reading the claims.
func (c *OIDCClient) UserInfo(ctx context.Context, token *oauth2.Token, nonce string) (domain.ExternalUserInfo, error) {
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return domain.ExternalUserInfo{}, errors.New("token response carries no id_token")
	}

	idToken, err := c.verifier.Verify(oidc.ClientContext(ctx, c.httpClient), raw)
	if err != nil {
		return domain.ExternalUserInfo{}, fmt.Errorf("verify id token: %w", err)
	}
	if idToken.Nonce != nonce {
		return domain.ExternalUserInfo{}, errNonceMismatch
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return domain.ExternalUserInfo{}, fmt.Errorf("parse id token claims: %w", err)
	}

	info := domain.ExternalUserInfo{Provider: c.name, ProviderID: idToken.Subject}
	switch {
	case claims.Nickname != "":
		info.Name = &claims.Nickname
	case claims.PreferredUsername != "":
		info.Name = &claims.PreferredUsername
	}
	if claims.Email != "" {
		info.Email = &claims.Email
	}
	return info, nil
}
