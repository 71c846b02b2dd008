// Package assets resolves static resource requests against a map built
// once at startup from a bundled asset tree. Lookup is an exact match on
// the normalized path; serving order never influences the result.
package assets

import (
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/dgellow/chat-front/internal/log"
)

// Resource is a single precompiled asset.
type Resource struct {
	Data     []byte
	MimeType string
}

// Store holds the immutable resource map. Built before serving begins and
// shared read-only across all request handlers.
type Store struct {
	resources map[string]Resource
}

// New walks fsys and indexes every file by its slash-separated path
// relative to the FS root.
func New(fsys fs.FS) (*Store, error) {
	resources := make(map[string]Resource)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		resources[normalize(p)] = Resource{
			Data:     data,
			MimeType: mimeTypeFor(p),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.LogInfoWithFields("assets", "Static resource map built", map[string]any{
		"resources": len(resources),
	})
	return &Store{resources: resources}, nil
}

// Empty returns a Store with no resources, for deployments that serve the
// SPA bundle from elsewhere.
func Empty() *Store {
	return &Store{resources: map[string]Resource{}}
}

// Lookup resolves a request path to its resource. The path is normalized
// first, so "/fonts/a.woff2" and "fonts/a.woff2" resolve identically.
func (s *Store) Lookup(requestPath string) (Resource, bool) {
	r, ok := s.resources[normalize(requestPath)]
	return r, ok
}

func normalize(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func mimeTypeFor(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}
