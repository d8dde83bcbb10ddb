// Package storage implements the attachment blob store. Blobs are
// written to a directory on disk under generated keys; the database
// only ever sees the key. The contract is deliberately small so the
// backend could be swapped for an object store without touching the
// handlers: Save, Open, Delete.
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned by Open when no blob exists for a key.
var ErrBlobNotFound = errors.New("blob not found")

// Store persists attachment blobs under a root directory.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a Store.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// NewKey generates an opaque storage key for an uploaded file. The
// original name contributes only its extension; the rest of the key
// is a UUID so uploads can never collide or traverse paths.
func NewKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return uuid.NewString() + ext
}

// Save streams the blob to disk under the given key.
func (s *Store) Save(key string, r io.Reader) error {
	f, err := os.Create(s.path(key))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(s.path(key))
		return err
	}
	return f.Close()
}

// Open returns a reader over the blob for a key. The caller closes
// it. Missing blobs yield ErrBlobNotFound.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return f, nil
}

// Path exposes the on-disk location of a blob so handlers can serve
// it with sendfile-style helpers.
func (s *Store) Path(key string) string {
	return s.path(key)
}

// Delete removes the blob for a key. It is idempotent: deleting an
// absent blob is not an error, since registry rows are removed first
// and a retry after a crash must succeed.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// path resolves a key inside the root. Keys are generated by NewKey
// so they contain no separators, but Base is applied anyway to keep
// a corrupted key from escaping the directory.
func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.Base(key))
}
