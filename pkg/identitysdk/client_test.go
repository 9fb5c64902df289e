package identitysdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestSDKClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /base/livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: "dev"})
	})
	mux.HandleFunc("GET /base/readyz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "degraded",
			Checks: &HealthChecks{Database: "error: closed", Providers: "ok"},
		})
	})
	mux.HandleFunc("GET /base/auth/providers", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, ProvidersResponse{Providers: []string{"github", "google"}})
	})
	mux.HandleFunc("GET /base/auth/userinfo", func(w http.ResponseWriter, r *http.Request) {
		NewError(ErrorTypeLoginRequired).WriteError(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	c := NewSDKClient(srv.URL + "/base/")

	health, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "dev", health.Version)

	health, err = c.GetReadiness(ctx)
	require.Error(t, err)
	require.Equal(t, "error: closed", health.Checks.Database)

	providers, err := c.GetProviders(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"github", "google"}, providers)

	_, err = c.GetUserInfo(ctx)
	require.True(t, IsErrorType(err, ErrorTypeLoginRequired))
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, http.StatusUnauthorized, e.Status)
}

func TestParseErrorFallback(t *testing.T) {
	err := parseError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	require.True(t, IsErrorType(err, ErrorTypeInternalError))

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, http.StatusBadGateway, e.Status)
}

func TestErrorRedirectURL(t *testing.T) {
	base, err := url.Parse("https://example.com/error?from=login")
	require.NoError(t, err)

	got := NewError(ErrorTypeInvalidCSRF).RedirectURL(base)
	require.Equal(t, "https://example.com/error?from=login&status=400&type=invalidCsrf", got)
}

func TestNewErrorStatus(t *testing.T) {
	tests := []struct {
		errorType string
		want      int
	}{
		{ErrorTypeLogoutRequired, http.StatusBadRequest},
		{ErrorTypeLoginRequired, http.StatusUnauthorized},
		{ErrorTypeProviderDenied, http.StatusForbidden},
		{ErrorTypeUnknownProvider, http.StatusNotFound},
		{ErrorTypeEmailAlreadyUsed, http.StatusConflict},
		{ErrorTypeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			require.Equal(t, tt.want, NewError(tt.errorType).Status)
		})
	}
}
