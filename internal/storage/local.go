// Package storage persists uploaded book cover images.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type FileStore interface {
	// Save writes the file and returns the relative path it is served
	// under. The original filename only contributes its extension.
	Save(filename string, src io.Reader) (string, error)
	Remove(path string) error
}

// LocalStore writes files to a directory on disk, served statically by the
// HTTP layer under /uploads/.
type LocalStore struct {
	dir     string
	maxSize int64
}

func NewLocalStore(dir string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &LocalStore{dir: dir, maxSize: maxSize}, nil
}

func (s *LocalStore) Save(filename string, src io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	dst := filepath.Join(s.dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(src, s.maxSize+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if n > s.maxSize {
		os.Remove(dst)
		return "", fmt.Errorf("upload exceeds %d bytes", s.maxSize)
	}
	return name, nil
}

func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	// Uploaded paths are bare generated names; anything else is refused.
	if filepath.Base(path) != path {
		return fmt.Errorf("invalid upload path %q", path)
	}
	return os.Remove(filepath.Join(s.dir, path))
}
