package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStorage writes objects below a directory served as static files.
type DiskStorage struct {
	dir    string
	prefix string
}

func NewDiskStorage(cfg *DiskConfig) (*DiskStorage, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("disk storage dir missing")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk storage: %w", err)
	}
	prefix := strings.TrimSuffix(cfg.URLPrefix, "/")
	if prefix == "" {
		prefix = "/public/uploads"
	}
	return &DiskStorage{dir: cfg.Dir, prefix: prefix}, nil
}

// Dir is the directory objects are written to.
func (s *DiskStorage) Dir() string { return s.dir }

// Put copies r to <dir>/<key> and returns <prefix>/<key>.
func (s *DiskStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("disk storage: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("disk storage: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	var src io.Reader = r
	if size > 0 {
		src = io.LimitReader(r, size)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return "", fmt.Errorf("disk storage write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("disk storage write %s: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("disk storage write %s: %w", key, err)
	}
	return s.prefix + "/" + key, nil
}

// Remove deletes <dir>/<key>. A missing object is not an error.
func (s *DiskStorage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("disk storage remove %s: %w", key, err)
	}
	return nil
}

// path maps key to a file below dir, rejecting keys that are not already clean.
func (s *DiskStorage) path(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", fmt.Errorf("disk storage: invalid key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}
