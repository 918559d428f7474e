package local_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rollcall-crawler/internal/storage/local"
)

func openStore(t *testing.T) (*local.BlobStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dir
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := local.New(local.Config{BaseDir: "  "})
	require.ErrorContains(t, err, "required")

	created := filepath.Join(t.TempDir(), "raw", "archive")
	store, err := local.New(local.Config{BaseDir: created})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.DirExists(t, created)

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = local.New(local.Config{BaseDir: file})
	require.Error(t, err)
}

func TestPutObjectWritesNestedPaths(t *testing.T) {
	t.Parallel()

	store, dir := openStore(t)
	ctx := context.Background()
	for _, p := range []string{"raw/house/2024/roll001.xml", "raw/senate/118/1/vote_118_1_00003.xml"} {
		uri, err := store.PutObject(ctx, p, "text/xml", bytes.NewReader([]byte(p)))
		require.NoError(t, err)
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.Equal(t, "file://"+full, uri)
		got, err := os.ReadFile(full) // #nosec G304 -- test temp dir
		require.NoError(t, err)
		require.Equal(t, p, string(got))
	}

	// overwriting replaces the object and leaves no temp file behind
	_, err := store.PutObject(ctx, "raw/house/2024/roll001.xml", "", bytes.NewReader([]byte("v2")))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(dir, "raw", "house", "2024"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPutObjectRejectsBadPaths(t *testing.T) {
	t.Parallel()

	store, _ := openStore(t)
	for _, p := range []string{"", "   ", "../escape.xml", "raw/../../escape.xml"} {
		_, err := store.PutObject(context.Background(), p, "", bytes.NewReader([]byte("x")))
		require.Error(t, err, p)
	}
}

func TestPutObjectFailedReadLeavesNothing(t *testing.T) {
	t.Parallel()

	store, dir := openStore(t)
	boom := errors.New("connection reset")
	_, err := store.PutObject(context.Background(), "raw/house/2025/roll009.xml", "", iotest.ErrReader(boom))
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(filepath.Join(dir, "raw", "house", "2025"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
