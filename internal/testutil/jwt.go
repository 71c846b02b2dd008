// Package testutil holds helpers shared by tests.
package testutil

import (
	"encoding/json"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

var signingKey = []byte("0123456789abcdef0123456789abcdef")

// AccessTokenOpts controls the claims of a generated access token.
type AccessTokenOpts struct {
	Subject   string
	UserID    string
	Email     string
	Picture   string
	ExpiresAt time.Time
}

// MakeAccessToken signs a minimal access token carrying the upstream
// identity provider's claim layout.
func MakeAccessToken(t *testing.T, opts AccessTokenOpts) string {
	t.Helper()

	if opts.ExpiresAt.IsZero() {
		opts.ExpiresAt = time.Now().Add(time.Hour)
	}

	claims := map[string]any{
		"sub": opts.Subject,
		"exp": opts.ExpiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	if opts.UserID != "" {
		claims["https://api.openai.com/auth"] = map[string]any{"user_id": opts.UserID}
	}
	if opts.Email != "" || opts.Picture != "" {
		claims["https://api.openai.com/profile"] = map[string]any{
			"email":   opts.Email,
			"picture": opts.Picture,
		}
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: signingKey}, nil)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	serialized, err := jws.CompactSerialize()
	if err != nil {
		t.Fatalf("failed to serialize token: %v", err)
	}
	return serialized
}
