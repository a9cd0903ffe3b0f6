package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/newthinker/coinalert/internal/core"
)

// LocalFS implements Storage for local filesystem
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a new LocalFS storage
func NewLocalFS(basePath string) (*LocalFS, error) {
	if basePath == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("localfs: path is required"))
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) fullPath(path string) string {
	return filepath.Join(l.basePath, filepath.Clean("/"+path))
}

// Write replaces the file atomically through a temp file and rename.
func (l *LocalFS) Write(ctx context.Context, path string, data []byte) error {
	fullPath := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating directories: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

func (l *LocalFS) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(path)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return data, nil
}

func (l *LocalFS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
