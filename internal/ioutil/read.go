// Package ioutil holds small helpers for bounded reads of untrusted
// response bodies.
package ioutil

import (
	"fmt"
	"io"
	"strings"
)

// Snippet reads at most limit bytes from r, for quoting upstream error
// bodies in logs and error messages. Read failures are reported inline
// rather than dropped, and the result is trimmed of surrounding
// whitespace.
func Snippet(r io.Reader, limit int64) string {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return fmt.Sprintf("(read error: %v)", err)
	}
	return strings.TrimSpace(string(data))
}
