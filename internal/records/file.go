package records

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one pretty-printed JSON array per collection under dir,
// named <collection>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("records: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("records: create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Read(ctx context.Context, name string) ([]Record, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.initialize(name); err != nil {
			return nil, storageErr("initialize", name, err)
		}
		b, err = os.ReadFile(s.path(name))
	}
	if err != nil {
		return nil, storageErr("read", name, err)
	}
	return decodeCollection(name, b)
}

// initialize creates an empty collection file unless one appeared meanwhile.
// The content is written to a temp file first and hard-linked into place, so
// the target never exists half-written and an existing file is never replaced.
func (s *FileStore) initialize(name string) error {
	tmp, err := s.writeTemp(name, []byte("[]"))
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if err := os.Link(tmp, s.path(name)); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func (s *FileStore) Write(ctx context.Context, name string, recs []Record) error {
	if err := checkName(name); err != nil {
		return err
	}
	b, err := encodeCollection(recs)
	if err != nil {
		return err
	}
	tmp, err := s.writeTemp(name, b)
	if err != nil {
		return storageErr("write", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return storageErr("write", name, err)
	}
	return nil
}

func (s *FileStore) writeTemp(name string, b []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
