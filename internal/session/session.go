// Package session implements the cookie-borne session and its wire codec.
//
// The session travels entirely client-side: the server keeps no store, so
// the encoded value is the whole identity. The encoding is bare base64url
// over canonical JSON, unsigned and unencrypted, because the SPA bundle
// this gateway serves expects exactly that shape. Every request re-checks
// the embedded access token, so the cookie by itself grants nothing.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrInvalidSession is returned for any cookie value that does not decode
// to a well-formed session.
var ErrInvalidSession = errors.New("invalid session")

// Session is the identity carried in the session cookie.
type Session struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	AccessToken  string `json:"access_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Picture      string `json:"picture,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Expires      int64  `json:"expires"`
}

// Encode serializes the session to its cookie value: canonical JSON,
// base64url with padding. Deterministic for a given session.
func Encode(s Session) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode reverses Encode. Malformed base64, malformed JSON, and sessions
// without an access token all yield ErrInvalidSession.
func Decode(value string) (Session, error) {
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return Session{}, ErrInvalidSession
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, ErrInvalidSession
	}
	if s.AccessToken == "" {
		return Session{}, ErrInvalidSession
	}
	return s, nil
}
