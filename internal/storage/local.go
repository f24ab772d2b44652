// Package storage abstracts access to the protected document files.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a stored document file.
type FileInfo struct {
	Size    int64
	ModTime int64
}

// FileStore resolves and opens document files by their stored path.
type FileStore interface {
	Stat(path string) (*FileInfo, error)
	Open(path string) (io.ReadCloser, error)
}

// LocalStore serves files from a directory tree on local disk. All paths are
// resolved relative to the root and may not escape it.
type LocalStore struct {
	root string
}

// NewLocalStore returns a LocalStore rooted at the given directory.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute storage root directory.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(s.root, cleaned)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

// Stat reports the size of the file at path, or an error when it is missing.
func (s *LocalStore) Stat(path string) (*FileInfo, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path %q is a directory", path)
	}
	return &FileInfo{Size: info.Size(), ModTime: info.ModTime().Unix()}, nil
}

// Open returns a reader over the file at path.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}
