// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local opens files below a directory on the local disk.
type Local struct{ dir string }

// NewLocal returns a Local rooted at dir. An empty dir means the working
// directory.
func NewLocal(dir string) *Local { return &Local{dir: dir} }

// Dir returns the root directory.
func (l *Local) Dir() string { return l.dir }

// Path resolves name against the root. Absolute names are used as-is.
func (l *Local) Path(name string) string {
	if filepath.IsAbs(name) || l.dir == "" {
		return name
	}
	return filepath.Join(l.dir, name)
}

// Open opens name for reading.
//
// A context that is already done short-circuits without touching the
// filesystem. Filesystem errors are wrapped with the resolved path and keep
// their identity, so errors.Is(err, os.ErrNotExist) reports a missing input.
func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p := l.Path(name)
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}
