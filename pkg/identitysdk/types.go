package identitysdk

import "time"

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database  string `json:"database"`
	Providers string `json:"providers"`
}

// ProvidersResponse lists the names of the configured external providers.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// UserInfoResponse describes the signed in user.
type UserInfoResponse struct {
	UserID           string           `json:"userId"`
	Name             string           `json:"name"`
	Email            *string          `json:"email,omitempty"`
	IsEmailConfirmed bool             `json:"isEmailConfirmed"`
	Created          time.Time        `json:"created"`
	SessionExpires   time.Time        `json:"sessionExpires"`
	RememberMe       bool             `json:"rememberMe"`
	LinkedProviders  []LinkedProvider `json:"linkedProviders"`
}

type LinkedProvider struct {
	Provider   string    `json:"provider"`
	ProviderID string    `json:"providerId"`
	LinkedAt   time.Time `json:"linkedAt"`
}
