package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RightSuffix is appended to right-hand column names that collide with a
// left-hand column in InnerJoin.
const RightSuffix = "_right"

// InnerJoin matches left rows to right rows where left[leftKey] equals
// right[rightKey]. Left rows without a match are dropped; a left row matching
// several right rows yields one output row per match.
//
// Output columns are the left columns followed by the right columns minus
// rightKey. Output order follows the left frame, then the right frame within
// one left row. NULL keys never match.
func InnerJoin(left, right *Frame, leftKey, rightKey string) (*Frame, error) {
	li, err := left.Lookup(leftKey)
	if err != nil {
		return nil, fmt.Errorf("join left: %w", err)
	}
	ri, err := right.Lookup(rightKey)
	if err != nil {
		return nil, fmt.Errorf("join right: %w", err)
	}

	cols := append([]string(nil), left.Columns...)
	keep := make([]int, 0, len(right.Columns))
	for j, c := range right.Columns {
		if j == ri {
			continue
		}
		if left.Index(c) >= 0 {
			c += RightSuffix
		}
		cols = append(cols, c)
		keep = append(keep, j)
	}

	index := make(map[string][]int, len(right.Rows))
	for r, row := range right.Rows {
		k, ok := Key(row[ri])
		if !ok {
			continue
		}
		index[k] = append(index[k], r)
	}

	out := make([][]any, 0, len(left.Rows))
	for _, lrow := range left.Rows {
		k, ok := Key(lrow[li])
		if !ok {
			continue
		}
		for _, r := range index[k] {
			rrow := right.Rows[r]
			row := make([]any, 0, len(cols))
			row = append(row, lrow...)
			for _, j := range keep {
				row = append(row, rrow[j])
			}
			out = append(out, row)
		}
	}
	return &Frame{Columns: cols, Rows: out}, nil
}

// Key renders a cell as a comparison key. Integers, integral floats and
// numeric text share a key so 7, 7.0 and "7" match, the way SQLite compares
// TEXT against INTEGER. Other text keys are prefixed so "s:x" never collides
// with a number; ok is false for NULL.
func Key(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return floatKey(t), true
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		if x, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(x) && !math.IsInf(x, 0) {
			return floatKey(x), true
		}
		return "s:" + t, true
	default:
		return fmt.Sprint(t), true
	}
}

func floatKey(x float64) string {
	if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
		return strconv.FormatInt(int64(x), 10)
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
