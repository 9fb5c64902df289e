package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// WriteJSON writes v as a JSON response with the given status code. Responses
// are never cached since most of them describe the current session.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// Redirect sends a non-cacheable 303 to target.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	NoCache(w)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// AbsoluteURL parses raw and accepts it only when it is an absolute http(s)
// URL with a host.
func AbsoluteURL(raw string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// WithQuery returns base with the given query parameters set, keeping any
// parameters already present.
func WithQuery(base *url.URL, params map[string]string) string {
	u := *base
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
