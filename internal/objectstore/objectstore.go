// Package objectstore stores uploaded photos and hands out public URLs for
// them. Two backends exist: an S3-compatible bucket and a local directory
// that the HTTP server exposes under /media/.
package objectstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidPath is returned for object paths that are empty, absolute or
// escape the store root.
var ErrInvalidPath = errors.New("invalid object path")

// Store is the object storage contract used by the invitation service.
type Store interface {
	Upload(ctx context.Context, objectPath string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
	// PathFromURL reverses PublicURL. ok is false for URLs this store did
	// not produce.
	PathFromURL(url string) (objectPath string, ok bool)
}

func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// pathUnder strips base from url and validates what remains.
func pathUnder(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	p, err := cleanPath(strings.TrimPrefix(url, prefix))
	if err != nil {
		return "", false
	}
	return p, true
}
