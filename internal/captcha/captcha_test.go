package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierInactive(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cases := map[string]*Verifier{
		"no keys":         NewVerifier("", "", WithVerifyURL(srv.URL)),
		"site key only":   NewVerifier("site", "", WithVerifyURL(srv.URL)),
		"secret key only": NewVerifier("", "secret", WithVerifyURL(srv.URL)),
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, v.Active())
			assert.NoError(t, v.Verify(context.Background(), "", "1.2.3.4"))
			assert.NoError(t, v.Verify(context.Background(), "anything", "1.2.3.4"))
		})
	}
	assert.Zero(t, calls.Load(), "inactive verifier must never call the verification service")
}

func TestVerifierMissingResponse(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	v := NewVerifier("site", "secret", WithVerifyURL(srv.URL))
	require.True(t, v.Active())

	err := v.Verify(context.Background(), "", "1.2.3.4")
	assert.ErrorIs(t, err, ErrMissingResponse)
	assert.Zero(t, calls.Load(), "empty challenge must fail before any network call")
}

func TestVerifierSuccess(t *testing.T) {
	var seen atomic.Pointer[map[string]string]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form := map[string]string{
			"secret":          r.PostFormValue("secret"),
			"response":        r.PostFormValue("response"),
			"remoteip":        r.PostFormValue("remoteip"),
			"idempotency_key": r.PostFormValue("idempotency_key"),
		}
		seen.Store(&form)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewVerifier("site", "secret-key", WithVerifyURL(srv.URL))
	require.NoError(t, v.Verify(context.Background(), "challenge-token", "203.0.113.9"))

	form := seen.Load()
	require.NotNil(t, form)
	assert.Equal(t, "secret-key", (*form)["secret"])
	assert.Equal(t, "challenge-token", (*form)["response"])
	assert.Equal(t, "203.0.113.9", (*form)["remoteip"])
	assert.NotEmpty(t, (*form)["idempotency_key"])
}

func TestVerifierFreshIdempotencyKeyPerCall(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		keys = append(keys, r.PostFormValue("idempotency_key"))
	}))
	defer srv.Close()

	v := NewVerifier("site", "secret", WithVerifyURL(srv.URL))
	require.NoError(t, v.Verify(context.Background(), "tok", "1.2.3.4"))
	require.NoError(t, v.Verify(context.Background(), "tok", "1.2.3.4"))

	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func TestVerifierRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad challenge", http.StatusForbidden)
	}))
	defer srv.Close()

	v := NewVerifier("site", "secret", WithVerifyURL(srv.URL))
	err := v.Verify(context.Background(), "bogus", "1.2.3.4")
	assert.ErrorIs(t, err, ErrVerificationFailed)
}
