// Package blob is the attachment store: opaque ciphertext blobs keyed by a
// server-assigned id. The relay never looks inside a blob.
package blob

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Save writes the blob and returns its id.
func (s *Store) Save(r io.Reader) (string, error) {
	id := uuid.NewString()
	f, err := os.Create(filepath.Join(s.dir, id))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return id, nil
}

// Path resolves id to a file path, or ErrNotFound. Ids containing path
// separators are rejected so a crafted id cannot escape the blob dir.
func (s *Store) Path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, id)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}
