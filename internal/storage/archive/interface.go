// Package archive stores small documents on a local directory, in memory or
// in an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/coinalert/internal/core"
)

// Storage defines the interface for document storage backends
type Storage interface {
	// Write stores data at the given path, replacing any previous content
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path. A missing object is
	// core.ErrNoData.
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	// Store is "memory", "localfs" or "s3".
	Store string   `mapstructure:"store"`
	Path  string   `mapstructure:"path"`
	S3    S3Config `mapstructure:"s3"`
}

// Open builds the backend named by cfg.Store.
func Open(cfg Config) (Storage, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemory(), nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown store %q", cfg.Store))
	}
}

func notFound(path string) error {
	return core.WrapError(core.ErrNoData, fmt.Errorf("object %q not found", path))
}
