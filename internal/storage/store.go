// Package storage keeps uploaded binaries (blog images, delivered reports)
// outside the record store and hands back a reference to persist.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFile reports an upload rejected by validation.
var ErrInvalidFile = errors.New("invalid file")

// MaxImageSize is the largest accepted image attachment in bytes.
const MaxImageSize = 5_000_000

// ObjectStore stores a binary under key and returns the reference clients use to fetch it.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var imageTypes = map[string]bool{"jpeg": true, "jpg": true, "png": true, "webp": true, "gif": true}

// ValidateImage accepts uploads of at most MaxImageSize bytes whose extension
// and MIME subtype are both one of jpeg, jpg, png, webp or gif.
func ValidateImage(u *Upload) error {
	if u == nil {
		return fmt.Errorf("%w: no file", ErrInvalidFile)
	}
	if u.Size > MaxImageSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidFile, u.Filename, MaxImageSize)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
	if !imageTypes[ext] {
		return fmt.Errorf("%w: images only", ErrInvalidFile)
	}
	mt := strings.ToLower(u.ContentType)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	kind, sub, ok := strings.Cut(mt, "/")
	if !ok || kind != "image" || !imageTypes[sub] {
		return fmt.Errorf("%w: images only", ErrInvalidFile)
	}
	return nil
}

// NewKey returns a unique object key under folder that keeps the upload's extension.
func NewKey(folder, filename string) string {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// Remover is implemented by object stores that can delete objects.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Remove deletes key from s. Stores without deletion support keep the object.
func Remove(ctx context.Context, s ObjectStore, key string) error {
	if r, ok := s.(Remover); ok {
		return r.Remove(ctx, key)
	}
	return nil
}

// Save stores u under a fresh key in folder.
func Save(ctx context.Context, s ObjectStore, folder string, u *Upload) (string, error) {
	if u == nil {
		return SaveAs(ctx, s, "", u)
	}
	return SaveAs(ctx, s, NewKey(folder, u.Filename), u)
}

// SaveAs stores u under key and returns the stored reference.
func SaveAs(ctx context.Context, s ObjectStore, key string, u *Upload) (string, error) {
	if u == nil || u.Body == nil {
		return "", fmt.Errorf("%w: no file", ErrInvalidFile)
	}
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	ref, err := s.Put(ctx, key, u.Body, u.Size, ct)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", u.Filename, err)
	}
	return ref, nil
}
