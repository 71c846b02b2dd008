// Package token validates bearer access tokens locally, without network
// calls. Signature verification is the upstream API's responsibility; the
// gateway only needs the claims to establish who the session belongs to
// and when it lapses, and to reject garbage before it reaches upstream.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

// ErrUnauthorized covers malformed, incomplete, and expired access tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Signature algorithms the upstream identity provider is known to issue.
var allowedAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.HS256,
}

// Profile is the identity extracted from an access token.
type Profile struct {
	UserID    string
	Email     string
	Picture   string
	ExpiresAt time.Time
}

// ExpiresIn returns the remaining token lifetime in whole seconds.
func (p Profile) ExpiresIn() int64 {
	return int64(time.Until(p.ExpiresAt).Seconds())
}

// Expires returns the absolute expiry as epoch seconds.
func (p Profile) Expires() int64 {
	return p.ExpiresAt.Unix()
}

type accessClaims struct {
	Sub   string `json:"sub"`
	Exp   int64  `json:"exp"`
	Email string `json:"email"`
	Auth  struct {
		UserID string `json:"user_id"`
	} `json:"https://api.openai.com/auth"`
	Profile struct {
		Email   string `json:"email"`
		Picture string `json:"picture"`
	} `json:"https://api.openai.com/profile"`
}

// Validate parses an access token and extracts its profile. A leading
// "Bearer " prefix is tolerated. Fails with ErrUnauthorized on malformed
// structure, missing identity claims, or a past expiry.
func Validate(accessToken string) (Profile, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(accessToken), "Bearer "))
	if raw == "" {
		return Profile{}, fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}

	jws, err := jose.ParseSigned(raw, allowedAlgorithms)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var claims accessClaims
	if err := json.Unmarshal(jws.UnsafePayloadWithoutVerification(), &claims); err != nil {
		return Profile{}, fmt.Errorf("%w: malformed claims: %v", ErrUnauthorized, err)
	}

	email := claims.Profile.Email
	if email == "" {
		email = claims.Email
	}
	if email == "" {
		return Profile{}, fmt.Errorf("%w: token carries no email", ErrUnauthorized)
	}

	userID := claims.Auth.UserID
	if userID == "" {
		userID = claims.Sub
	}
	if userID == "" {
		return Profile{}, fmt.Errorf("%w: token carries no subject", ErrUnauthorized)
	}

	expiresAt := time.Unix(claims.Exp, 0)
	if claims.Exp == 0 || time.Now().After(expiresAt) {
		return Profile{}, fmt.Errorf("%w: token expired", ErrUnauthorized)
	}

	return Profile{
		UserID:    userID,
		Email:     email,
		Picture:   claims.Profile.Picture,
		ExpiresAt: expiresAt,
	}, nil
}
