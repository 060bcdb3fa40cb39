// Package datasource defines where extraction reads source files from.
package datasource

import (
	"context"
	"io"
)

// Source opens named source files. Names are relative to the source's root.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
