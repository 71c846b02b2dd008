// Package config holds the immutable process configuration, read once
// from the environment before the server accepts traffic.
package config

import (
	"fmt"
	"os"
)

// Config is the complete gateway configuration.
type Config struct {
	// Addr is the listen address for the gateway itself.
	Addr string

	// UpstreamOrigin overrides the backend API origin. Empty selects the
	// canonical upstream.
	UpstreamOrigin string

	// AuthOrigin overrides the identity service origin used for credential
	// exchange, revocation, and userinfo.
	AuthOrigin string

	// AuthClientID is the OAuth2 client id presented during credential
	// exchange.
	AuthClientID string

	// CaptchaSiteKey and CaptchaSecretKey enable the Turnstile check on
	// login when both are set.
	CaptchaSiteKey   string
	CaptchaSecretKey string

	// AssetsDir is the directory holding the precompiled SPA bundle.
	// Empty serves no static assets.
	AssetsDir string

	// MetricsAddr, when set, serves Prometheus metrics on a separate
	// listener so the SPA route contract stays untouched.
	MetricsAddr string
}

// FromEnv reads configuration from CHAT_FRONT_* environment variables and
// validates it.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:             envOr("CHAT_FRONT_ADDR", ":8080"),
		UpstreamOrigin:   os.Getenv("CHAT_FRONT_UPSTREAM"),
		AuthOrigin:       os.Getenv("CHAT_FRONT_AUTH_ORIGIN"),
		AuthClientID:     os.Getenv("CHAT_FRONT_AUTH_CLIENT_ID"),
		CaptchaSiteKey:   os.Getenv("CHAT_FRONT_SITE_KEY"),
		CaptchaSecretKey: os.Getenv("CHAT_FRONT_SECRET_KEY"),
		AssetsDir:        os.Getenv("CHAT_FRONT_ASSETS_DIR"),
		MetricsAddr:      os.Getenv("CHAT_FRONT_METRICS_ADDR"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if (c.CaptchaSiteKey == "") != (c.CaptchaSecretKey == "") {
		return fmt.Errorf("captcha requires both CHAT_FRONT_SITE_KEY and CHAT_FRONT_SECRET_KEY")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
