// Package client is the HTTP client for the quest-server profile store API.
// It implements the store contract the progress reconciler consumes: fetch
// the full profile at session start, push partial merge-updates during play.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/culturoquest/quest-server/internal/progress"
)

const defaultTimeout = 5 * time.Second

// Options configures the API client.
type Options struct {
	// BaseURL of the quest-server API, e.g. "https://api.culturoquest.example".
	BaseURL string
	// Token is the bearer credential issued at login.
	Token string
	// HTTPClient overrides the default client. The client owns call timeouts;
	// callers of the reconciler never see them.
	HTTPClient *http.Client
}

// Client talks to the profile store endpoints with a bearer credential.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ progress.Store = (*Client)(nil)

// New builds an API client. The token must be non-empty; sessions without a
// credential should construct the reconciler with a nil store instead.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL required")
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("bearer token required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    httpClient,
	}, nil
}

// FetchProfile retrieves the full profile snapshot.
func (c *Client) FetchProfile(ctx context.Context) (*progress.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("fetch profile", resp)
	}

	var profile progress.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// MergeUpdate pushes a partial update. The server merges per field: arrays
// union into persisted sets, points and avatar replace, active stages
// replace wholesale.
func (c *Client) MergeUpdate(ctx context.Context, update progress.Update) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/users/me/progress", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("push update", resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func apiError(op string, resp *http.Response) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("%s: %s (%s)", op, envelope.Message, envelope.Error)
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
}
