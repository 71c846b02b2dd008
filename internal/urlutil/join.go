// Package urlutil resolves service endpoints against configured origins.
package urlutil

import (
	"fmt"
	"net/url"
	"path"
)

// Endpoint joins an endpoint path onto a service origin, normalizing
// slashes on either side of the seam. The origin must carry a scheme
// and host.
func Endpoint(origin, endpoint string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("origin %q has no scheme or host", origin)
	}
	u.Path = path.Join(u.Path, endpoint)
	return u.String(), nil
}

// MustEndpoint is Endpoint for origins already validated by configuration
// loading; it panics on a malformed origin.
func MustEndpoint(origin, endpoint string) string {
	result, err := Endpoint(origin, endpoint)
	if err != nil {
		panic(err)
	}
	return result
}
