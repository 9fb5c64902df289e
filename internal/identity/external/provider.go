package external

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"golang.org/x/oauth2"
)

// Kind tags the protocol a provider speaks.
type Kind int

const (
	KindOAuth2 Kind = iota + 1
	KindOIDC
)

func (k Kind) String() string {
	switch k {
	case KindOAuth2:
		return "oauth2"
	case KindOIDC:
		return "oidc"
	default:
		return "unknown"
	}
}

// Provider is implemented by *OAuth2Client and *OIDCClient only.
type Provider interface {
	Name() string
	Kind() Kind

	// AuthCodeURL returns the authorization URL carrying the CSRF state, the
	// S256 challenge of verifier and, for OIDC, the nonce.
	AuthCodeURL(state, verifier, nonce string) string

	// Exchange trades the authorization code and PKCE verifier for a token.
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)

	// UserInfo resolves the normalized user record behind token.
	UserInfo(ctx context.Context, token *oauth2.Token, nonce string) (domain.ExternalUserInfo, error)

	sealed()
}

var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return defaultHTTPClient
	}
	return c
}

func withHTTPClient(ctx context.Context, c *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c)
}
