package token

import (
	"testing"
	"time"

	"github.com/dgellow/chat-front/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("extracts profile from valid token", func(t *testing.T) {
		expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
		accessToken := testutil.MakeAccessToken(t, testutil.AccessTokenOpts{
			Subject:   "auth0|abc",
			UserID:    "user-abc",
			Email:     "sam@example.com",
			Picture:   "https://cdn.example.com/sam.png",
			ExpiresAt: expiry,
		})

		profile, err := Validate(accessToken)
		require.NoError(t, err)

		assert.Equal(t, "user-abc", profile.UserID)
		assert.Equal(t, "sam@example.com", profile.Email)
		assert.Equal(t, "https://cdn.example.com/sam.png", profile.Picture)
		assert.Equal(t, expiry.Unix(), profile.Expires())
		assert.Greater(t, profile.ExpiresIn(), int64(3600))
	})

	t.Run("tolerates Bearer prefix", func(t *testing.T) {
		accessToken := testutil.MakeAccessToken(t, testutil.AccessTokenOpts{
			Subject: "auth0|abc",
			Email:   "sam@example.com",
		})

		profile, err := Validate("Bearer " + accessToken)
		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", profile.Email)
	})

	t.Run("falls back to sub when auth claim is missing", func(t *testing.T) {
		accessToken := testutil.MakeAccessToken(t, testutil.AccessTokenOpts{
			Subject: "auth0|fallback",
			Email:   "sam@example.com",
		})

		profile, err := Validate(accessToken)
		require.NoError(t, err)
		assert.Equal(t, "auth0|fallback", profile.UserID)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		accessToken := testutil.MakeAccessToken(t, testutil.AccessTokenOpts{
			Subject:   "auth0|abc",
			Email:     "sam@example.com",
			ExpiresAt: time.Now().Add(-time.Minute),
		})

		_, err := Validate(accessToken)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects token without email", func(t *testing.T) {
		accessToken := testutil.MakeAccessToken(t, testutil.AccessTokenOpts{
			Subject: "auth0|abc",
		})

		_, err := Validate(accessToken)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, input := range []string{"", "Bearer ", "not-a-jwt", "a.b.c", "e30.e30.e30"} {
			_, err := Validate(input)
			assert.ErrorIs(t, err, ErrUnauthorized, "input %q", input)
		}
	})
}
