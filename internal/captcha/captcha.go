// Package captcha adapts the Cloudflare Turnstile verification service for
// the login flow. The verifier is active only when both the site key and
// the secret key are configured; otherwise every check passes.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgellow/chat-front/internal/ioutil"
	"github.com/dgellow/chat-front/internal/log"
	"github.com/google/uuid"
)

const defaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	// ErrMissingResponse means the form carried no challenge token while
	// verification was required. Checked before any network call.
	ErrMissingResponse = errors.New("missing captcha response")

	// ErrVerificationFailed means the verification service rejected the
	// challenge token.
	ErrVerificationFailed = errors.New("captcha verification failed")
)

// Verifier checks Turnstile challenge responses against the verification
// endpoint.
type Verifier struct {
	siteKey   string
	secretKey string
	verifyURL string
	client    *http.Client
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithVerifyURL overrides the verification endpoint, used in tests.
func WithVerifyURL(u string) Option {
	return func(v *Verifier) { v.verifyURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.client = c }
}

// NewVerifier builds a Verifier. Site key and secret key must be
// configured together; with either missing the verifier is inactive.
func NewVerifier(siteKey, secretKey string, opts ...Option) *Verifier {
	v := &Verifier{
		siteKey:   siteKey,
		secretKey: secretKey,
		verifyURL: defaultVerifyURL,
		client:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Active reports whether challenge verification is enforced.
func (v *Verifier) Active() bool {
	return v.siteKey != "" && v.secretKey != ""
}

// SiteKey returns the configured site key for embedding in login pages.
func (v *Verifier) SiteKey() string {
	return v.siteKey
}

// Verify checks a submitted challenge response. Inactive verifiers accept
// everything. An empty response fails immediately without touching the
// network. Each verification call carries a fresh idempotency key.
func (v *Verifier) Verify(ctx context.Context, response, remoteIP string) error {
	if !v.Active() {
		return nil
	}
	if response == "" {
		return ErrMissingResponse
	}

	form := url.Values{
		"secret":          {v.secretKey},
		"response":        {response},
		"remoteip":        {remoteIP},
		"idempotency_key": {uuid.NewString()},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.LogWarnWithFields("captcha", "Verification rejected", map[string]any{
			"status": resp.StatusCode,
			"body":   ioutil.Snippet(resp.Body, 512),
		})
		return fmt.Errorf("%w: status %d", ErrVerificationFailed, resp.StatusCode)
	}
	return nil
}
