package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// MediaPrefix is the URL path under which the disk store is served.
const MediaPrefix = "/media"

// DiskStore keeps objects in a local directory.
type DiskStore struct {
	root string
	base string
	log  zerolog.Logger
}

// NewDiskStore stores objects below root; publicBaseURL is the externally
// visible address of the HTTP server.
func NewDiskStore(root, publicBaseURL string, log zerolog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskStore{
		root: root,
		base: strings.TrimRight(publicBaseURL, "/") + MediaPrefix,
		log:  log,
	}, nil
}

// Root returns the directory objects are written to.
func (d *DiskStore) Root() string {
	return d.root
}

// Upload writes body to objectPath. The file is written under a temporary
// name and renamed, so readers never see a partial photo.
func (d *DiskStore) Upload(ctx context.Context, objectPath string, body io.Reader, size int64, contentType string) error {
	p, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	dest := filepath.Join(d.root, filepath.FromSlash(p))

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("short write: got %d bytes, want %d", n, size)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}

	d.log.Debug().Str("path", p).Int64("size", n).Msg("object stored")
	return nil
}

// Delete removes objectPath. Missing objects are not an error.
func (d *DiskStore) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.root, filepath.FromSlash(p))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL returns the public address of objectPath.
func (d *DiskStore) PublicURL(objectPath string) string {
	return d.base + "/" + objectPath
}

// PathFromURL reverses PublicURL.
func (d *DiskStore) PathFromURL(url string) (string, bool) {
	return pathUnder(d.base, url)
}
