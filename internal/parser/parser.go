// Package parser defines the contract shared by source-file parsers.
package parser

import (
	"io"

	"salesetl/internal/frame"
)

// Parser reads a whole source into a frame. It also returns the number of
// input rows it skipped as malformed.
type Parser interface {
	Parse(r io.Reader) (*frame.Frame, int, error)
}
