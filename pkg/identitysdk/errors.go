package identitysdk

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/identity/pkg/httpx"
)

// Error types reported by the service, either as JSON bodies or as the type
// query parameter of an error page redirect.
const (
	ErrorTypeInvalidRedirectURL     = "invalidRedirectUrl"
	ErrorTypeUnknownProvider        = "unknownProvider"
	ErrorTypeLogoutRequired         = "logoutRequired"
	ErrorTypeLoginRequired          = "loginRequired"
	ErrorTypeMissingExternalLogin   = "missingExternalLogin"
	ErrorTypeInvalidCSRF            = "invalidCsrf"
	ErrorTypeMissingNonce           = "missingNonce"
	ErrorTypeProviderDenied         = "providerDenied"
	ErrorTypeFailedExternalUserInfo = "failedExternalUserInfo"
	ErrorTypeEmailAlreadyUsed       = "emailAlreadyUsed"
	ErrorTypeProviderAlreadyUsed    = "providerAlreadyUsed"
	ErrorTypeUserNotFound           = "userNotFound"
	ErrorTypeInternalError          = "internalError"
)

// Error is the error body of the service. It is written by the server and
// returned by the client for every non-success response.
type Error struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Type, e.Status)
}

// WriteError writes e as a JSON response.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Status, e)
}

// RedirectURL returns errorURL with the type and status query parameters.
func (e *Error) RedirectURL(errorURL *url.URL) string {
	return httpx.WithQuery(errorURL, map[string]string{
		"type":   e.Type,
		"status": fmt.Sprint(e.Status),
	})
}

// NewError returns an error of the given type with its canonical status.
func NewError(errorType string) *Error {
	return &Error{Type: errorType, Status: statusOf(errorType)}
}

func statusOf(errorType string) int {
	switch errorType {
	case ErrorTypeLoginRequired:
		return http.StatusUnauthorized
	case ErrorTypeProviderDenied:
		return http.StatusForbidden
	case ErrorTypeUnknownProvider, ErrorTypeUserNotFound:
		return http.StatusNotFound
	case ErrorTypeEmailAlreadyUsed, ErrorTypeProviderAlreadyUsed:
		return http.StatusConflict
	case ErrorTypeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// IsErrorType reports whether err is a service error of the given type.
func IsErrorType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}
