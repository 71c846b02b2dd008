package ioutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestSnippet(t *testing.T) {
	t.Run("reads short body in full", func(t *testing.T) {
		got := Snippet(strings.NewReader("invalid_grant"), 512)
		assert.Equal(t, "invalid_grant", got)
	})

	t.Run("truncates at the limit", func(t *testing.T) {
		got := Snippet(strings.NewReader(strings.Repeat("x", 100)), 10)
		assert.Equal(t, strings.Repeat("x", 10), got)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		got := Snippet(strings.NewReader("  oops \n"), 512)
		assert.Equal(t, "oops", got)
	})

	t.Run("reports read failures inline", func(t *testing.T) {
		got := Snippet(failingReader{}, 512)
		assert.Contains(t, got, "connection reset")
	})
}
