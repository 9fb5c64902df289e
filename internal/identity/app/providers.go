package app

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	"github.com/ghodss/yaml"
)

// ProvidersConfig is the providers file: OpenID Connect and plain OAuth2
// providers keyed by their name, which appears in the routes.
//
//	openid:
//	  google:
//	    discoveryUrl: https://accounts.google.com
//	    clientId: ...
//	    clientSecret: ${GOOGLE_CLIENT_SECRET}
//	    scopes: [email, profile]
//	    redirectUrl: https://auth.example.com/identity/auth/google/auth
//	oauth2:
//	  github:
//	    authorizationUrl: https://github.com/login/oauth/authorize
//	    tokenUrl: https://github.com/login/oauth/access_token
//	    userInfoUrl: https://api.github.com/user
//	    userInfoMapping: {name: login}
//	    extensions: [githubEmail]
//	    ...
type ProvidersConfig struct {
	OpenID map[string]external.OIDCConfig   `json:"openid"`
	OAuth2 map[string]external.OAuth2Config `json:"oauth2"`
}

// LoadProviders reads the providers file. ${VAR} references are expanded
// from the environment so that client secrets can stay out of the file.
func LoadProviders(path string) (ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProvidersConfig{}, fmt.Errorf("read providers file: %w", err)
	}
	return ParseProviders([]byte(os.ExpandEnv(string(data))))
}

func ParseProviders(data []byte) (ProvidersConfig, error) {
	var cfg ProvidersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProvidersConfig{}, fmt.Errorf("%w: %w", external.ErrProviderConfig, err)
	}
	return cfg, nil
}

// Build creates every provider and the registry holding them. OpenID
// providers run discovery here, so an unreachable issuer fails startup.
func (p ProvidersConfig) Build(ctx context.Context, httpClient *http.Client) (*external.Registry, error) {
	var providers []external.Provider

	for _, name := range slices.Sorted(maps.Keys(p.OpenID)) {
		c, err := external.NewOIDCClient(ctx, name, p.OpenID[name], httpClient)
		if err != nil {
			return nil, err
		}
		providers = append(providers, c)
	}
	for _, name := range slices.Sorted(maps.Keys(p.OAuth2)) {
		c, err := external.NewOAuth2Client(name, p.OAuth2[name], httpClient)
		if err != nil {
			return nil, err
		}
		providers = append(providers, c)
	}
	return external.NewRegistry(providers...)
}
