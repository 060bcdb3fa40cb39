// Package transformer defines the frame-to-frame transformation contract and
// an ordered Chain of transformers. Concrete transformers live in builtin.
package transformer

import (
	"fmt"

	"salesetl/internal/frame"
)

// Transformer rewrites a frame. Implementations must not mutate their input;
// they return a new frame (which may share unchanged rows).
type Transformer interface {
	Apply(in *frame.Frame) (*frame.Frame, error)
}

// Func adapts an ordinary function to Transformer.
type Func func(in *frame.Frame) (*frame.Frame, error)

// Apply calls f(in).
func (f Func) Apply(in *frame.Frame) (*frame.Frame, error) { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, feeding each the previous output.
// It stops at the first error, which is wrapped with the failing step.
func (c Chain) Apply(in *frame.Frame) (*frame.Frame, error) {
	out := in
	for i, t := range c {
		next, err := t.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("transform step %d (%T): %w", i, t, err)
		}
		out = next
	}
	return out, nil
}
