package ddl

import "salesetl/internal/frame"

// FromFrame infers a table definition for f. A column is KindInt when every
// non-NULL cell is int64, KindFloat when cells are int64/float64 with at least
// one float64, and KindText otherwise (including all-NULL columns). Every
// column is nullable; staging tables carry whatever the source implies.
func FromFrame(table string, f *frame.Frame) TableDef {
	defs := make([]ColumnDef, len(f.Columns))
	for c, name := range f.Columns {
		defs[c] = ColumnDef{Name: name, Kind: columnKind(f, c), Nullable: true}
	}
	return TableDef{FQN: table, Columns: defs}
}

func columnKind(f *frame.Frame, c int) string {
	kind := ""
	for _, row := range f.Rows {
		switch row[c].(type) {
		case nil:
			continue
		case int64:
			if kind == "" {
				kind = KindInt
			}
		case float64:
			kind = KindFloat
		default:
			return KindText
		}
	}
	if kind == "" {
		return KindText
	}
	return kind
}

// Conform returns a copy of rows with each cell coerced to its column's kind:
// int64 cells in float columns become float64 and non-text cells in text
// columns are rendered with frame.FormatCell. NULLs are kept.
func Conform(t TableDef, rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for r, row := range rows {
		cp := make([]any, len(row))
		copy(cp, row)
		for c := range cp {
			if c >= len(t.Columns) || cp[c] == nil {
				continue
			}
			switch t.Columns[c].Kind {
			case KindFloat:
				if n, ok := cp[c].(int64); ok {
					cp[c] = float64(n)
				}
			case KindText:
				if _, ok := cp[c].(string); !ok {
					cp[c] = frame.FormatCell(cp[c])
				}
			}
		}
		out[r] = cp
	}
	return out
}
