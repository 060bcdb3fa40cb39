// Package builtin contains the reusable frame transformers used by the
// cleaning stage: column-name and value trimming, renaming, currency
// conversion and exact-row de-duplication.
package builtin

import (
	"fmt"
	"strings"

	"salesetl/internal/frame"
)

// TrimColumnNames strips leading and trailing whitespace from every column
// name. Two names that collide after trimming are an error.
type TrimColumnNames struct{}

func (TrimColumnNames) Apply(in *frame.Frame) (*frame.Frame, error) {
	out := in.Clone()
	seen := make(map[string]string, len(out.Columns))
	for i, c := range out.Columns {
		t := strings.TrimSpace(c)
		if prev, dup := seen[t]; dup {
			return nil, fmt.Errorf("trim column names: %q and %q both become %q", prev, c, t)
		}
		seen[t] = c
		out.Columns[i] = t
	}
	return out, nil
}

// TrimValues strips leading and trailing whitespace from the string cells
// of Columns. Non-string cells are left alone. Every listed column must
// exist.
type TrimValues struct {
	Columns []string
}

func (t TrimValues) Apply(in *frame.Frame) (*frame.Frame, error) {
	idx := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		j, err := in.Lookup(c)
		if err != nil {
			return nil, fmt.Errorf("trim values: %w", err)
		}
		idx[i] = j
	}
	out := in.Clone()
	for _, row := range out.Rows {
		for _, j := range idx {
			if s, ok := row[j].(string); ok {
				row[j] = strings.TrimSpace(s)
			}
		}
	}
	return out, nil
}

// Rename maps column names (old -> new). Absent source names are ignored so
// one rename map can serve frames that already use the canonical names.
// Renaming onto a name that already exists is an error.
type Rename struct {
	Columns map[string]string
}

func (r Rename) Apply(in *frame.Frame) (*frame.Frame, error) {
	if len(r.Columns) == 0 {
		return in, nil
	}
	for from, to := range r.Columns {
		if from == to || in.Index(from) < 0 {
			continue
		}
		if in.Index(to) >= 0 {
			return nil, fmt.Errorf("rename %q -> %q: target column already exists", from, to)
		}
	}
	out := in.Clone()
	out.RenameColumns(r.Columns)
	return out, nil
}
