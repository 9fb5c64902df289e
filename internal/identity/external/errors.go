package external

import (
	"errors"
)

var (
	ErrProviderConflict = errors.New("external: provider already registered")
	ErrUnknownProvider  = errors.New("external: unknown provider")
	ErrProviderConfig   = errors.New("external: invalid provider configuration")
	ErrDiscovery        = errors.New("external: openid discovery failed")

	ErrLogoutRequired         = errors.New("external: logout required")
	ErrLoginRequired          = errors.New("external: login required")
	ErrMissingExternalLogin   = errors.New("external: no external login in progress")
	ErrInvalidCSRF            = errors.New("external: invalid csrf state")
	ErrMissingNonce           = errors.New("external: missing nonce")
	ErrProviderDenied         = errors.New("external: provider denied the authorization")
	ErrFailedExternalUserInfo = errors.New("external: failed to resolve external user info")
)

// Error carries the caller supplied error page along with the cause, so the
// HTTP layer can route the user back to the page that started the flow.
type Error struct {
	Err      error
	ErrorURL string
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func flowError(err error, errorURL string) error {
	return &Error{Err: err, ErrorURL: errorURL}
}

// ErrorURL returns the error page attached to err, if any.
func ErrorURL(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorURL
	}
	return ""
}
