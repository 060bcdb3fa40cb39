package csv_test

import (
	"reflect"
	"strings"
	"testing"

	pcsv "salesetl/internal/parser/csv"
)

func TestParse_StripsStrayQuotesAndInfersTypes(t *testing.T) {
	t.Parallel()

	const in = "'invoice_id','product_id','quantity','date'\n" +
		"'INV-1','1','3','2024-01-05'\n" +
		"'INV-2','2','1','2024-01-06'\n"

	f, skipped, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	wantCols := []string{"invoice_id", "product_id", "quantity", "date"}
	if !reflect.DeepEqual(f.Columns, wantCols) {
		t.Fatalf("columns = %q, want %q", f.Columns, wantCols)
	}
	wantRows := [][]any{
		{"INV-1", int64(1), int64(3), "2024-01-05"},
		{"INV-2", int64(2), int64(1), "2024-01-06"},
	}
	if !reflect.DeepEqual(f.Rows, wantRows) {
		t.Fatalf("rows = %#v, want %#v", f.Rows, wantRows)
	}
}

func TestParse_KeepsWhitespaceForCleaning(t *testing.T) {
	t.Parallel()

	const in = "id, name ,price\n1,  Green Tea ,1200\n2,Rice,2.5\n"

	f, _, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Columns[1] != " name " {
		t.Fatalf("header = %q, want %q", f.Columns[1], " name ")
	}
	if f.Rows[0][1] != "  Green Tea " {
		t.Fatalf("value = %q, want untrimmed", f.Rows[0][1])
	}
	// Mixed int/float promotes the whole column to float64.
	if f.Rows[0][2] != 1200.0 || f.Rows[1][2] != 2.5 {
		t.Fatalf("price cells = %#v, %#v", f.Rows[0][2], f.Rows[1][2])
	}
}

func TestParse_BOMEmptyCellsAndShortRows(t *testing.T) {
	t.Parallel()

	const in = "\uFEFFid,label,score\n" +
		"1,,7\n" +
		"2,b\n" + // too few fields
		"3,c,NaN\n"

	f, skipped, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Columns[0] != "id" {
		t.Fatalf("BOM not stripped: %q", f.Columns[0])
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if f.Len() != 3 {
		t.Fatalf("rows = %d, want 3", f.Len())
	}
	if f.Rows[0][1] != nil {
		t.Fatalf("empty cell = %#v, want nil", f.Rows[0][1])
	}
	// The short row is padded with NULL.
	if want := []any{int64(2), "b", nil}; !reflect.DeepEqual(f.Rows[1], want) {
		t.Fatalf("short row = %#v, want %#v", f.Rows[1], want)
	}
	// "NaN" is not treated as a number, so the column stays text.
	if f.Rows[0][2] != "7" || f.Rows[2][2] != "NaN" {
		t.Fatalf("score cells = %#v, %#v", f.Rows[0][2], f.Rows[2][2])
	}
}

func TestParse_LongRowIsAnError(t *testing.T) {
	t.Parallel()

	const in = "id,name,type,price\n" +
		"1,Tea,Drinks,2.5\n" +
		"2,Rice,Food,1.0,extra\n"

	f, _, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse(strings.NewReader(in))
	if err == nil {
		t.Fatalf("Parse = %v, want error", f)
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("error %q does not name the row", err)
	}
}

func TestParse_SkipBadRows(t *testing.T) {
	t.Parallel()

	const in = "id,name,type,price\n" +
		"1,Tea,Drinks,2.5\n" +
		"2,Rice,Food\n" +
		"3,Noodles,Food,1.0,extra\n"

	opt := pcsv.DefaultOptions()
	opt.SkipBadRows = true
	f, skipped, err := pcsv.NewParser(opt).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 2 || f.Len() != 1 {
		t.Fatalf("rows = %d skipped = %d, want 1 and 2", f.Len(), skipped)
	}
}

func TestParse_BlankAndDuplicateHeaders(t *testing.T) {
	t.Parallel()

	f, _, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse(strings.NewReader("a,,a\n1,2,3\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"a", "col_1", "a.1"}
	if !reflect.DeepEqual(f.Columns, want) {
		t.Fatalf("columns = %q, want %q", f.Columns, want)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	t.Parallel()

	if _, _, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse(strings.NewReader("")); err == nil {
		t.Fatalf("Parse(empty): want error")
	}
}

func TestParse_VerbatimWithoutInference(t *testing.T) {
	t.Parallel()

	f, _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("'id'\n'1'\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Columns[0] != "'id'" || f.Rows[0][0] != "'1'" {
		t.Fatalf("zero Options should read verbatim, got %q / %#v", f.Columns[0], f.Rows[0][0])
	}
}

func TestStripQuotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "'product_id'", want: "product_id"},
		{in: `"x"`, want: "x"},
		{in: " 'x' ", want: "x"},
		{in: "''", want: ""},
		{in: `12"`, want: `12"`},
		{in: `'mixed"`, want: `'mixed"`},
		{in: "plain", want: "plain"},
		{in: "'", want: "'"},
	}
	for _, tt := range tests {
		if got := pcsv.StripQuotes(tt.in); got != tt.want {
			t.Errorf("StripQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
