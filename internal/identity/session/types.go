package session

import (
	"time"

	"github.com/google/uuid"
)

// CurrentUser is the authenticated user carried by the user-session cookie.
type CurrentUser struct {
	UserID uuid.UUID `json:"u"`
	Name   string    `json:"n"`
}

// ExternalLogin is the state of an in-flight external login round trip.
// LinkedUser is set when the flow links a provider to an existing identity
// instead of logging in.
type ExternalLogin struct {
	PKCEVerifier string       `json:"pv"`
	CSRFState    string       `json:"cv"`
	Nonce        string       `json:"n,omitempty"`
	TargetURL    string       `json:"t,omitempty"`
	ErrorURL     string       `json:"et,omitempty"`
	RememberMe   bool         `json:"rm,omitempty"`
	LinkedUser   *CurrentUser `json:"l,omitempty"`
}

// TokenLogin is a bearer token session. Its validity comes entirely from
// the cookie signature and Expires; nothing is stored server side.
type TokenLogin struct {
	UserID     uuid.UUID `json:"u"`
	Token      string    `json:"t"`
	Expires    time.Time `json:"e"`
	RememberMe bool      `json:"r,omitempty"`
}
