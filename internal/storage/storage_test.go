package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	cases := []struct {
		name string
		up   *Upload
		ok   bool
	}{
		{"png", &Upload{Filename: "a.png", ContentType: "image/png", Size: 10}, true},
		{"jpg upper ext", &Upload{Filename: "A.JPG", ContentType: "image/jpeg", Size: 10}, true},
		{"webp with params", &Upload{Filename: "a.webp", ContentType: "image/webp; q=1", Size: 10}, true},
		{"exactly max", &Upload{Filename: "a.gif", ContentType: "image/gif", Size: MaxImageSize}, true},
		{"too large", &Upload{Filename: "a.gif", ContentType: "image/gif", Size: MaxImageSize + 1}, false},
		{"pdf", &Upload{Filename: "a.pdf", ContentType: "application/pdf", Size: 10}, false},
		{"ext ok mime wrong", &Upload{Filename: "a.png", ContentType: "text/plain", Size: 10}, false},
		{"mime ok ext wrong", &Upload{Filename: "a.exe", ContentType: "image/png", Size: 10}, false},
		{"no ext", &Upload{Filename: "image", ContentType: "image/png", Size: 10}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImage(tc.up)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidFile)
			}
		})
	}
}

func TestNewKey(t *testing.T) {
	k := NewKey("blogs", "Photo.PNG")
	require.True(t, strings.HasPrefix(k, "blogs/"))
	require.True(t, strings.HasSuffix(k, ".png"))
	require.NotEqual(t, k, NewKey("blogs", "Photo.PNG"))
	require.False(t, strings.Contains(NewKey("", "x.pdf"), "/"))
}

func TestDiskStorage_Put(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(&DiskConfig{Dir: dir, URLPrefix: "/public/uploads/"})
	require.NoError(t, err)

	ref, err := s.Put(context.Background(), "reports/r1.pdf", strings.NewReader("report"), 6, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "/public/uploads/reports/r1.pdf", ref)

	b, err := os.ReadFile(filepath.Join(dir, "reports", "r1.pdf"))
	require.NoError(t, err)
	require.Equal(t, "report", string(b))

	entries, err := os.ReadDir(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDiskStorage_RejectsTraversal(t *testing.T) {
	s, err := NewDiskStorage(&DiskConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	for _, key := range []string{"../escape.png", "a/../../b.png", "", "/abs.png"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), 1, "image/png")
		require.Error(t, err, key)
	}
}

func TestDiskStorage_DefaultPrefix(t *testing.T) {
	s, err := NewDiskStorage(&DiskConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	ref, err := s.Put(context.Background(), "a.png", strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	require.Equal(t, "/public/uploads/a.png", ref)
}

func TestNewDiskStorage_RequiresDir(t *testing.T) {
	_, err := NewDiskStorage(&DiskConfig{})
	require.Error(t, err)
	_, err = NewDiskStorage(nil)
	require.Error(t, err)
}

type recordingStore struct {
	key, contentType string
	body             []byte
	err              error
}

func (r *recordingStore) Put(ctx context.Context, key string, rd io.Reader, size int64, contentType string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.key, r.contentType = key, contentType
	r.body, _ = io.ReadAll(rd)
	return "ref://" + key, nil
}

func TestSave(t *testing.T) {
	rs := &recordingStore{}
	ref, err := Save(context.Background(), rs, "blogs", &Upload{Filename: "x.gif", Body: bytes.NewReader([]byte("GIF89a")), Size: 6})
	require.NoError(t, err)
	require.Equal(t, "ref://"+rs.key, ref)
	require.Equal(t, "application/octet-stream", rs.contentType)
	require.Equal(t, "GIF89a", string(rs.body))

	_, err = Save(context.Background(), rs, "blogs", nil)
	require.ErrorIs(t, err, ErrInvalidFile)

	boom := errors.New("bucket gone")
	_, err = Save(context.Background(), &recordingStore{err: boom}, "blogs", &Upload{Filename: "x.gif", Body: strings.NewReader("x")})
	require.ErrorIs(t, err, boom)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "disk", &DiskConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	require.IsType(t, &DiskStorage{}, s)

	_, err = Open(context.Background(), "minio", nil, &MinIOConfig{})
	require.Error(t, err)

	_, err = Open(context.Background(), "ftp", nil, nil)
	require.ErrorContains(t, err, "unknown backend")
}

func TestNewMinIOStorage_RequiresPublicBaseURL(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), &MinIOConfig{Endpoint: "127.0.0.1:1", Bucket: "cms"})
	require.ErrorIs(t, err, ErrNoPublicURL)
}

func TestDiskStorage_Remove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(&DiskConfig{Dir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	key := NewKey("blogs", "cover.png")
	_, err = SaveAs(ctx, s, key, &Upload{Filename: "cover.png", ContentType: "image/png", Body: strings.NewReader("img")})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, filepath.FromSlash(key)))

	require.NoError(t, Remove(ctx, s, key))
	require.NoFileExists(t, filepath.Join(dir, filepath.FromSlash(key)))

	// already gone
	require.NoError(t, Remove(ctx, s, key))
	require.Error(t, s.Remove(ctx, "../outside.png"))
}

func TestRemove_StoreWithoutDeletion(t *testing.T) {
	rs := &recordingStore{}
	require.NoError(t, Remove(context.Background(), rs, "blogs/x.png"))
}
