package domain

import "time"

// ExternalLogin identifies one account of a federated provider.
type ExternalLogin struct {
	Provider   string
	ProviderID string
}

// ExternalLoginLink is a stored binding between an identity and an external
// login.
type ExternalLoginLink struct {
	ExternalLogin
	LinkedAt time.Time
}

// ExternalUserInfo is the normalized user record resolved from a provider,
// independent of the protocol (OAuth2 user-info endpoint or OIDC claims) it
// came from.
type ExternalUserInfo struct {
	Provider   string
	ProviderID string
	Name       *string
	Email      *string
}

// Login returns the external login the user info belongs to.
func (i ExternalUserInfo) Login() ExternalLogin {
	return ExternalLogin{Provider: i.Provider, ProviderID: i.ProviderID}
}
