package records

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestFileStore_InitializesMissingFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "users")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	require.Equal(t, "[]", string(b))
}

func TestFileStore_CorruptedFileIsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blogs.json"), []byte(`[{"title": "half`), 0o644))
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "blogs")
	require.ErrorIs(t, err, ErrCorrupted)
	require.NotErrorIs(t, err, ErrStorage)

	// the corrupted file is left for inspection
	b, err := os.ReadFile(filepath.Join(dir, "blogs.json"))
	require.NoError(t, err)
	require.Equal(t, `[{"title": "half`, string(b))
}

func TestFileStore_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "blogs", []Record{{"_id": "1", "title": "Meals"}}))
	_, err = s.Read(ctx, "users")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"blogs.json", "users.json"}, names)
}

func TestFileStore_PrettyPrintsJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "users", []Record{{"_id": "1"}}))

	b, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	require.Equal(t, "[\n  {\n    \"_id\": \"1\"\n  }\n]", string(b))
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}
