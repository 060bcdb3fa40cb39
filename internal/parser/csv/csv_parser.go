// Package csv reads delimited source files into frames. It normalizes the
// known defects of the regional exports at ingestion: a leading byte order
// mark, Unicode composition differences, and header/value cells wrapped in a
// stray pair of quote characters (e.g. 'product_id').
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"salesetl/internal/frame"
)

// Options configures the parser. The zero value reads comma-separated input
// verbatim; DefaultOptions is what the extractor uses.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// StripQuotes removes one pair of matching ' or " characters wrapping a
	// header or value after encoding/csv has done its own unquoting.
	StripQuotes bool

	// InferTypes converts columns whose cells are all integers to int64 and
	// all numeric to float64. Other columns stay strings.
	InferTypes bool

	// SkipBadRows drops rows that fail to parse or have the wrong number of
	// fields, counting them instead of failing. When false, short rows are
	// padded with NULLs and long or malformed rows are an error.
	SkipBadRows bool

	// MaxLoggedSkips bounds how many skipped rows are logged individually.
	MaxLoggedSkips int
}

// DefaultOptions mirrors how the regional exports are read.
func DefaultOptions() Options {
	return Options{Comma: ',', StripQuotes: true, InferTypes: true, MaxLoggedSkips: 20}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not concurrently.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the whole input, which must start with a header row, and
// returns it as a frame together with the number of data rows skipped. Rows
// are only skipped under Options.SkipBadRows.
func (p *Parser) Parse(r io.Reader) (*frame.Frame, int, error) {
	// BOMOverride strips a UTF-8 BOM and decodes UTF-16 input carrying one.
	r = transform.NewReader(r, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("read csv header: empty input")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := p.normalizeHeaders(h)

	var (
		rows    [][]any
		skipped int
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err == nil && len(rec) > len(headers) {
			err = fmt.Errorf("too many fields (expected %d, got %d)", len(headers), len(rec))
		}
		if err == nil && len(rec) < len(headers) && p.opt.SkipBadRows {
			err = fmt.Errorf("too few fields (expected %d, got %d)", len(headers), len(rec))
		}
		if err != nil {
			if !p.opt.SkipBadRows {
				return nil, 0, fmt.Errorf("read csv row %d: %w", line, err)
			}
			p.logSkip(skipped, "Skipping row %d: %v", line, err)
			skipped++
			continue
		}
		// Missing trailing fields read as NULL.
		row := make([]any, len(headers))
		for i, v := range rec {
			row[i] = emptyToNil(p.cell(v))
		}
		rows = append(rows, row)
	}

	f := frame.New(headers, rows)
	if p.opt.InferTypes {
		inferTypes(f)
	}
	return f, skipped, nil
}

func (p *Parser) logSkip(n int, format string, args ...any) {
	if n < p.opt.MaxLoggedSkips {
		log.Printf("csv: "+format, args...)
	}
}

func (p *Parser) cell(v string) string {
	v = norm.NFC.String(v)
	if p.opt.StripQuotes {
		v = StripQuotes(v)
	}
	return v
}

// normalizeHeaders strips stray quotes and fills blank or repeated names so
// every column is addressable. Surrounding whitespace is preserved; trimming
// column names is a cleaning step, not an ingestion one.
func (p *Parser) normalizeHeaders(h []string) []string {
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		c := p.cell(col)
		if strings.TrimSpace(c) == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		if n := seen[c]; n > 0 {
			seen[c] = n + 1
			c = fmt.Sprintf("%s.%d", c, n)
		} else {
			seen[c] = 1
		}
		out[i] = c
	}
	return out
}

// StripQuotes removes a single pair of matching quote characters (' or ")
// that wraps s, ignoring surrounding whitespace. Anything else is returned
// unchanged.
func StripQuotes(s string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 2 {
		first, last := t[0], t[len(t)-1]
		if first == last && (first == '\'' || first == '"') {
			return t[1 : len(t)-1]
		}
	}
	return s
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
