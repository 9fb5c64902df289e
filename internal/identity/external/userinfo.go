package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
)

// Responses larger than this are not user info documents.
const maxUserInfoSize = 1 << 20

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUserInfoSize))
		return fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoSize))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// mapUserInfo builds the normalized record out of a user info document. The
// id is required; name and email are optional.
func mapUserInfo(provider string, profile map[string]any, mapping map[string]string) (domain.ExternalUserInfo, error) {
	field := func(key string) string {
		if f, ok := mapping[key]; ok && f != "" {
			return f
		}
		return key
	}

	id, ok := stringValue(profile[field("id")])
	if !ok || id == "" {
		return domain.ExternalUserInfo{}, fmt.Errorf("user info of %s has no %q field", provider, field("id"))
	}

	info := domain.ExternalUserInfo{Provider: provider, ProviderID: id}
	if name, ok := stringValue(profile[field("name")]); ok && name != "" {
		info.Name = &name
	}
	if email, ok := stringValue(profile[field("email")]); ok && email != "" {
		info.Email = &email
	}
	return info, nil
}

// stringValue accepts strings and numbers, since providers disagree on the
// type of their ids.
func stringValue(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func githubPrimaryEmail(ctx context.Context, client *http.Client, userInfoURL string) (*string, error) {
	var emails []githubEmail
	if err := getJSON(ctx, client, strings.TrimRight(userInfoURL, "/")+"/emails", &emails); err != nil {
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified && e.Email != "" {
			email := e.Email
			return &email, nil
		}
	}
	return nil, nil
}
