package builtin

import (
	"reflect"
	"testing"

	"salesetl/internal/frame"
)

func mk(rows ...[]any) *frame.Frame {
	return frame.New([]string{"id", "product_name", "price"}, rows)
}

func TestDeDupExactRowsKeepFirst(t *testing.T) {
	t.Parallel()

	in := mk(
		[]any{int64(1), "Tea", int64(100)},
		[]any{int64(2), "Rice", int64(200)},
		[]any{int64(1), "Tea", int64(100)},
		[]any{int64(1), "Tea", int64(101)},
		[]any{int64(2), "Rice", int64(200)},
	)
	got, err := DeDup{Policy: KeepFirst}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := mk(
		[]any{int64(1), "Tea", int64(100)},
		[]any{int64(2), "Rice", int64(200)},
		[]any{int64(1), "Tea", int64(101)},
	)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-first:\n%v\nwant\n%v", got, want)
	}
	if in.Len() != 5 {
		t.Fatalf("input mutated: %d rows", in.Len())
	}
}

func TestDeDupKeysKeepLast(t *testing.T) {
	t.Parallel()

	in := mk(
		[]any{int64(1), "Tea", int64(100)},
		[]any{int64(2), "Rice", int64(200)},
		[]any{int64(1), "Green Tea", int64(120)},
	)
	got, err := DeDup{Keys: []string{"id"}}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := mk(
		[]any{int64(2), "Rice", int64(200)},
		[]any{int64(1), "Green Tea", int64(120)},
	)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-last:\n%v\nwant\n%v", got, want)
	}
}

func TestDeDupTypeAndNullSemantics(t *testing.T) {
	t.Parallel()

	in := frame.New([]string{"v"}, [][]any{
		{int64(1)}, {1.0}, {"1"}, {nil}, {nil}, {""},
	})
	got, err := DeDup{Policy: KeepFirst}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := frame.New([]string{"v"}, [][]any{
		{int64(1)}, {1.0}, {"1"}, {nil}, {""},
	})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDeDupErrors(t *testing.T) {
	t.Parallel()

	if _, err := (DeDup{Keys: []string{"sku"}}).Apply(mk()); err == nil {
		t.Fatalf("missing key column: want error")
	}
	if _, err := (DeDup{Policy: "most-complete"}).Apply(mk()); err == nil {
		t.Fatalf("unknown policy: want error")
	}
}

func TestAppendKeyDistinguishesBoundaries(t *testing.T) {
	t.Parallel()

	a := appendKey(nil, []any{"ab", "c"}, []int{0, 1})
	b := appendKey(nil, []any{"a", "bc"}, []int{0, 1})
	if string(a) == string(b) {
		t.Fatalf("keys collide: %q", a)
	}
}

func BenchmarkDeDup(b *testing.B) {
	rows := make([][]any, 10000)
	for i := range rows {
		rows[i] = []any{int64(i % 2500), "Tea", int64(100)}
	}
	in := mk(rows...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := (DeDup{Policy: KeepFirst}).Apply(in); err != nil {
			b.Fatal(err)
		}
	}
}
