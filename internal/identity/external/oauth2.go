package external

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"golang.org/x/oauth2"
)

// Extension enables provider specific user info lookups.
type Extension string

// ExtensionGithubEmail fetches the primary verified address from the
// GitHub emails endpoint when the profile does not expose one.
const ExtensionGithubEmail Extension = "githubEmail"

// OAuth2Config describes a plain OAuth2 provider. UserInfoMapping maps the
// normalized fields "id", "name" and "email" to the JSON field names of the
// provider's user info response; unmapped fields use their own name.
type OAuth2Config struct {
	AuthorizationURL string            `json:"authorizationUrl"`
	TokenURL         string            `json:"tokenUrl"`
	UserInfoURL      string            `json:"userInfoUrl"`
	UserInfoMapping  map[string]string `json:"userInfoMapping"`
	Extensions       []Extension       `json:"extensions"`
	ClientID         string            `json:"clientId"`
	ClientSecret     string            `json:"clientSecret"`
	Scopes           []string          `json:"scopes"`
	RedirectURL      string            `json:"redirectUrl"`
}

type OAuth2Client struct {
	name        string
	config      oauth2.Config
	userInfoURL string
	mapping     map[string]string
	extensions  map[Extension]bool
	httpClient  *http.Client
}

var _ Provider = (*OAuth2Client)(nil)

// NewOAuth2Client validates cfg and builds the client. A nil httpClient
// selects a client with a conservative timeout.
func NewOAuth2Client(name string, cfg OAuth2Config, httpClient *http.Client) (*OAuth2Client, error) {
	for field, raw := range map[string]string{
		"authorizationUrl": cfg.AuthorizationURL,
		"tokenUrl":         cfg.TokenURL,
		"userInfoUrl":      cfg.UserInfoURL,
		"redirectUrl":      cfg.RedirectURL,
	} {
		if err := validateURL(raw); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrProviderConfig, name, field, err)
		}
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: %s: missing clientId", ErrProviderConfig, name)
	}

	extensions := make(map[Extension]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		if ext != ExtensionGithubEmail {
			return nil, fmt.Errorf("%w: %s: unknown extension %q", ErrProviderConfig, name, ext)
		}
		extensions[ext] = true
	}

	return &OAuth2Client{
		name: name,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		mapping:     cfg.UserInfoMapping,
		extensions:  extensions,
		httpClient:  httpClientOrDefault(httpClient),
	}, nil
}

func (c *OAuth2Client) Name() string { return c.name }
func (c *OAuth2Client) Kind() Kind   { return KindOAuth2 }
func (c *OAuth2Client) sealed()      {}

func (c *OAuth2Client) AuthCodeURL(state, verifier, _ string) string {
	return c.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (c *OAuth2Client) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	return c.config.Exchange(withHTTPClient(ctx, c.httpClient), code, oauth2.VerifierOption(verifier))
}

func (c *OAuth2Client) UserInfo(ctx context.Context, token *oauth2.Token, _ string) (domain.ExternalUserInfo, error) {
	client := c.config.Client(withHTTPClient(ctx, c.httpClient), token)

	var profile map[string]any
	if err := getJSON(ctx, client, c.userInfoURL, &profile); err != nil {
		return domain.ExternalUserInfo{}, err
	}

	info, err := mapUserInfo(c.name, profile, c.mapping)
	if err != nil {
		return domain.ExternalUserInfo{}, err
	}

	if info.Email == nil && c.extensions[ExtensionGithubEmail] {
		email, err := githubPrimaryEmail(ctx, client, c.userInfoURL)
		if err != nil {
			return domain.ExternalUserInfo{}, err
		}
		info.Email = email
	}
	return info, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", raw)
	}
	return nil
}
