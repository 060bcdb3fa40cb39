package builtin

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"salesetl/internal/frame"
)

// Policies accepted by DeDup.
const (
	KeepFirst = "keep-first"
	KeepLast  = "keep-last"
)

// DeDup collapses rows whose Keys cells are identical. With no Keys every
// column is compared, which removes exact duplicate rows.
//
//   - "keep-first": keep the earliest occurrence
//   - "keep-last" : keep the latest occurrence (default)
//
// Output rows are in ascending order of the surviving row's input position.
// Rows are bucketed by an xxh3 hash of their key cells and compared cell by
// cell within a bucket, so hash collisions never merge distinct rows. Cells
// compare by type and value: int64(1) and float64(1) are different.
type DeDup struct {
	// Keys are the columns forming the duplicate key. Empty means all columns.
	Keys []string

	// Policy selects the winner among duplicates.
	Policy string
}

func (d DeDup) Apply(in *frame.Frame) (*frame.Frame, error) {
	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	switch policy {
	case "":
		policy = KeepLast
	case KeepFirst, KeepLast:
	default:
		return nil, fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}

	idx, err := d.keyIndexes(in)
	if err != nil {
		return nil, err
	}

	var (
		buckets = make(map[uint64][]int, len(in.Rows)) // hash -> winner slots
		winners = make([]int, 0, len(in.Rows))         // slot -> row index
		buf     []byte
	)
	for r, row := range in.Rows {
		buf = appendKey(buf[:0], row, idx)
		h := xxh3.Hash(buf)

		slot := -1
		for _, s := range buckets[h] {
			if sameKey(in.Rows[winners[s]], row, idx) {
				slot = s
				break
			}
		}
		switch {
		case slot < 0:
			buckets[h] = append(buckets[h], len(winners))
			winners = append(winners, r)
		case policy == KeepLast:
			winners[slot] = r
		}
	}

	sort.Ints(winners)
	rows := make([][]any, len(winners))
	for i, r := range winners {
		rows[i] = append([]any(nil), in.Rows[r]...)
	}
	return frame.New(append([]string(nil), in.Columns...), rows), nil
}

func (d DeDup) keyIndexes(in *frame.Frame) ([]int, error) {
	if len(d.Keys) == 0 {
		idx := make([]int, len(in.Columns))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	idx := make([]int, len(d.Keys))
	for i, k := range d.Keys {
		j, err := in.Lookup(k)
		if err != nil {
			return nil, fmt.Errorf("dedup: %w", err)
		}
		idx[i] = j
	}
	return idx, nil
}

// appendKey encodes the key cells with a type tag so that, e.g., the string
// "1" and the integer 1 hash apart.
func appendKey(b []byte, row []any, idx []int) []byte {
	for _, i := range idx {
		switch v := row[i].(type) {
		case nil:
			b = append(b, 0)
		case int64:
			b = append(b, 'i')
			b = binary.LittleEndian.AppendUint64(b, uint64(v))
		case float64:
			b = append(b, 'f')
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
		case string:
			b = append(b, 's')
			b = binary.AppendUvarint(b, uint64(len(v)))
			b = append(b, v...)
		default:
			s := fmt.Sprint(v)
			b = append(b, '?')
			b = binary.AppendUvarint(b, uint64(len(s)))
			b = append(b, s...)
		}
	}
	return b
}

func sameKey(a, b []any, idx []int) bool {
	for _, i := range idx {
		if !sameCell(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameCell(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64:
		y, ok := b.(int64)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	case string:
		y, ok := b.(string)
		return ok && x == y
	default:
		return fmt.Sprint(a) == fmt.Sprint(b) && fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
	}
}
