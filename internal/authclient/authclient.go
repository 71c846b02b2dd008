// Package authclient talks to the upstream identity service: password
// credential exchange, refresh-token revocation, and user picture lookup.
// The gateway is a plain OAuth2 client here; issued tokens are validated
// locally by the token package.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgellow/chat-front/internal/ioutil"
	"github.com/dgellow/chat-front/internal/log"
	"github.com/dgellow/chat-front/internal/session"
	"github.com/dgellow/chat-front/internal/token"
	"github.com/dgellow/chat-front/internal/urlutil"
	"golang.org/x/oauth2"
)

const defaultOrigin = "https://auth0.openai.com"

// ErrLoginFailed means the identity service rejected the credentials.
var ErrLoginFailed = errors.New("login failed")

// Client performs authenticated exchanges with the identity service.
type Client struct {
	clientID    string
	tokenURL    string
	revokeURL   string
	userInfoURL string
	httpClient  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithOrigin overrides the identity service origin.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.tokenURL = urlutil.MustEndpoint(origin, "/oauth/token")
		c.revokeURL = urlutil.MustEndpoint(origin, "/oauth/revoke")
		c.userInfoURL = urlutil.MustEndpoint(origin, "/userinfo")
	}
}

// WithHTTPClient overrides the HTTP client used for all calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a Client for the given OAuth2 client id.
func New(clientID string, opts ...Option) *Client {
	c := &Client{
		clientID:   clientID,
		httpClient: http.DefaultClient,
	}
	WithOrigin(defaultOrigin)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token via the resource owner password
// grant and folds the result into a new session. The session's absolute
// expiry is fixed at issue time plus the granted lifetime.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	cfg := oauth2.Config{
		ClientID: c.clientID,
		Endpoint: oauth2.Endpoint{TokenURL: c.tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:   []string{"openid", "email", "profile", "offline_access"},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		log.LogDebugWithFields("authclient", "Credential exchange rejected", map[string]any{
			"username": username,
			"error":    err.Error(),
		})
		return session.Session{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	profile, err := token.Validate(tok.AccessToken)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: issued token is unusable: %v", ErrLoginFailed, err)
	}

	expiresIn := profile.ExpiresIn()
	if !tok.Expiry.IsZero() {
		expiresIn = int64(time.Until(tok.Expiry).Seconds())
	}

	return session.Session{
		RefreshToken: tok.RefreshToken,
		AccessToken:  tok.AccessToken,
		UserID:       profile.UserID,
		Email:        profile.Email,
		Picture:      profile.Picture,
		ExpiresIn:    expiresIn,
		Expires:      time.Now().Unix() + expiresIn,
	}, nil
}

// RevokeToken revokes a refresh token. Callers treat failures as
// best-effort; logout proceeds either way.
func (c *Client) RevokeToken(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"client_id": {c.clientID},
		"token":     {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("revocation failed: status %d: %s",
			resp.StatusCode, ioutil.Snippet(resp.Body, 512))
	}
	return nil
}

// UserPicture fetches the user's picture URL from the userinfo endpoint.
// Returns an empty string without error when the profile has no picture.
func (c *Client) UserPicture(ctx context.Context, accessToken string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo failed: status %d", resp.StatusCode)
	}

	var info struct {
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return info.Picture, nil
}
