// Package local archives raw documents under a directory on disk.
package local

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

// Config names the archive directory.
type Config struct {
	BaseDir string `mapstructure:"base_dir"`
}

// BlobStore writes each object atomically beneath a root directory. Paths
// that would leave the root are rejected by os.Root.
type BlobStore struct {
	dir  string
	root *os.Root
}

// New opens BaseDir, creating it when missing.
func New(cfg Config) (*BlobStore, error) {
	dir := strings.TrimSpace(cfg.BaseDir)
	if dir == "" {
		return nil, errors.New("archive base directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve archive directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open archive directory: %w", err)
	}
	s := &BlobStore{dir: abs, root: root}
	if err := s.probe(); err != nil {
		return nil, errors.Join(err, root.Close())
	}
	return s, nil
}

func (s *BlobStore) probe() error {
	const name = ".rollcall-probe"
	if err := s.root.WriteFile(name, nil, 0o600); err != nil {
		return fmt.Errorf("archive directory is not writable: %w", err)
	}
	return s.root.Remove(name)
}

// PutObject writes r to objectPath and returns its file:// URI. Readers see
// either the previous object or the complete new one. The content type is
// not kept.
func (s *BlobStore) PutObject(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	name := path.Clean(strings.TrimSpace(objectPath))
	if name == "." || name == "/" || strings.HasPrefix(name, "../") || name == ".." {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	name = strings.TrimPrefix(name, "/")
	if dir := path.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tmp := name + ".partial"
	f, err := s.root.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.root.Rename(tmp, name)
	}
	if err != nil {
		if rmErr := s.root.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return "file://" + filepath.Join(s.dir, filepath.FromSlash(name)), nil
}

// Close releases the root directory handle.
func (s *BlobStore) Close() error {
	return s.root.Close()
}
