package builtin

import (
	"fmt"

	"salesetl/internal/currency"
	"salesetl/internal/frame"
)

// Convert adds column To holding Rate applied to column From. NULL stays
// NULL; non-numeric cells are an error. With an identity rate the source
// value is copied unchanged.
type Convert struct {
	From string
	To   string
	Rate currency.Rate
}

func (c Convert) Apply(in *frame.Frame) (*frame.Frame, error) {
	src, err := in.Lookup(c.From)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", c.From, err)
	}
	out := in.Clone()
	err = out.AddColumn(c.To, func(row []any) (any, error) {
		return c.Rate.Convert(row[src])
	})
	if err != nil {
		return nil, fmt.Errorf("convert %s -> %s (%s): %w", c.From, c.To, c.Rate, err)
	}
	return out, nil
}
