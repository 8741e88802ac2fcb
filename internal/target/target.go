// Package target describes the prediction endpoint a probe is aimed at.
// A target is a base URL plus a chatflow identifier, joined as
// {base_url}/api/v1/prediction/{chatflow_id}.
package target

import (
	"fmt"
	"net/url"
	"strings"
)

// PredictionPath is the route prefix served by the prediction API.
const PredictionPath = "/api/v1/prediction/"

const (
	DefaultBaseURL    = "http://localhost:3000"
	DefaultChatflowID = "YOUR_CHATFLOW_ID"
)

// Target identifies a prediction endpoint.
type Target struct {
	BaseURL    string // Scheme and host, optionally with a path prefix (e.g., "http://localhost:3000")
	ChatflowID string // Opaque chatflow identifier, never interpreted
}

// New creates a Target from a base URL and chatflow ID.
func New(baseURL, chatflowID string) Target {
	return Target{
		BaseURL:    strings.TrimSpace(baseURL),
		ChatflowID: strings.TrimSpace(chatflowID),
	}
}

// URL returns the full prediction URL for the target.
//
// Example:
//
//	New("http://localhost:3000", "abc123").URL()
//	// "http://localhost:3000/api/v1/prediction/abc123"
func (t Target) URL() string {
	return strings.TrimRight(t.BaseURL, "/") + PredictionPath + t.ChatflowID
}

// Validate checks that the base URL is absolute and the chatflow ID is set.
func (t Target) Validate() error {
	if t.BaseURL == "" {
		return fmt.Errorf("base URL is not configured. Set it in config file (base_url), environment variable (FLOWPROBE_BASE_URL) or --base-url")
	}
	u, err := url.Parse(t.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", t.BaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q (expected format: scheme://host[:port], e.g., http://localhost:3000)", t.BaseURL)
	}
	if t.ChatflowID == "" {
		return fmt.Errorf("chatflow ID is not configured. Set it in config file (chatflow_id), environment variable (FLOWPROBE_CHATFLOW_ID) or as an argument")
	}
	return nil
}

// IsPredictionURL reports whether s looks like a full prediction URL rather than a bare chatflow ID.
func IsPredictionURL(s string) bool {
	return strings.Contains(s, "://") && strings.Contains(s, PredictionPath)
}

// Parse splits a full prediction URL into its base URL and chatflow ID.
// Query strings and fragments are dropped.
//
// Example:
//
//	t, err := Parse("https://flow.example.com/api/v1/prediction/abc123")
//	// t.BaseURL = "https://flow.example.com", t.ChatflowID = "abc123"
func Parse(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("invalid prediction URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Target{}, fmt.Errorf("invalid prediction URL %q (expected format: scheme://host/api/v1/prediction/<id>)", raw)
	}

	idx := strings.LastIndex(u.Path, PredictionPath)
	if idx < 0 {
		return Target{}, fmt.Errorf("invalid prediction URL %q: path does not contain %s", raw, PredictionPath)
	}
	id := strings.Trim(u.Path[idx+len(PredictionPath):], "/")
	if id == "" || strings.Contains(id, "/") {
		return Target{}, fmt.Errorf("invalid prediction URL %q: missing chatflow ID", raw)
	}

	base := url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: u.Path[:idx]}
	return New(base.String(), id), nil
}
