package identitysdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SDKClient calls the identity service relative to its auth base URL.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.getJSON(ctx, "/livez", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness returns the readiness report. A degraded service answers 503
// with the same body, returned here along with the error.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.do(ctx, "/readyz")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, &Error{Type: health.Status, Status: resp.StatusCode}
	}
	return &health, nil
}

func (c *SDKClient) GetProviders(ctx context.Context) ([]string, error) {
	var providers ProvidersResponse
	if err := c.getJSON(ctx, "/auth/providers", &providers); err != nil {
		return nil, err
	}
	return providers.Providers, nil
}

// GetUserInfo describes the user signed in with the cookies of HTTPClient's
// jar.
func (c *SDKClient) GetUserInfo(ctx context.Context) (*UserInfoResponse, error) {
	var info UserInfoResponse
	if err := c.getJSON(ctx, "/auth/userinfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *SDKClient) do(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *SDKClient) getJSON(ctx context.Context, path string, target any) error {
	resp, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseError(status int, body []byte) error {
	var e Error
	if err := json.Unmarshal(body, &e); err != nil || e.Type == "" {
		return &Error{Type: ErrorTypeInternalError, Status: status}
	}
	if e.Status == 0 {
		e.Status = status
	}
	return &e
}
