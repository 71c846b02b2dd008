// Package upstream issues authenticated calls to the conversation backend
// and reshapes share payloads for the gateway's own origin.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgellow/chat-front/internal/log"
	"golang.org/x/oauth2"
)

// WebOrigin is the canonical upstream web origin. Share payloads link back
// to it; those links are rewritten to be relative so navigation stays on
// the gateway.
const WebOrigin = "https://chat.openai.com"

// ErrUpstream covers every failed share retrieval: transport errors,
// error statuses, and non-JSON bodies. Callers synthesize a not-found
// response from it and never surface the raw upstream error.
var ErrUpstream = errors.New("upstream failure")

// Client calls the backend API.
type Client struct {
	origin     string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a Client. An empty origin selects the canonical upstream.
func New(origin string, opts ...Option) *Client {
	if origin == "" {
		origin = WebOrigin
	}
	c := &Client{
		origin:     strings.TrimRight(origin, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Origin returns the configured API origin.
func (c *Client) Origin() string {
	return c.origin
}

// FetchShare retrieves a shared conversation with the session's bearer
// token and rewrites its continue_conversation_url in place: a leading
// canonical web origin is stripped so the link becomes relative.
func (c *Client) FetchShare(ctx context.Context, shareID, accessToken string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/backend-api/share/%s", c.origin, url.PathEscape(shareID))

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.LogDebugWithFields("upstream", "Share fetch failed", map[string]any{
			"shareId": shareID,
			"status":  resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: non-JSON share payload: %v", ErrUpstream, err)
	}

	if link, ok := data["continue_conversation_url"].(string); ok {
		if rest, found := strings.CutPrefix(link, WebOrigin); found {
			data["continue_conversation_url"] = rest
		}
	}
	return data, nil
}

// FetchImage retrieves the resource named by rawURL. The response is
// returned as-is so the handler can pass status, content type, and body
// through unchanged; the caller owns closing the body.
func (c *Client) FetchImage(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}
