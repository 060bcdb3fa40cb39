package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"salesetl/internal/frame"
	"salesetl/internal/region"
	"salesetl/internal/storage"
	_ "salesetl/internal/storage/sqlite"
)

const (
	japanItems = "'id','product_name','category','price'\n" +
		"'1',' Green Tea ','Drinks','1000'\n" +
		"'2','Rice','Food','250'\n"
	japanSales = "'invoice_id','product_id','quantity','date'\n" +
		"'INV-1','1','2','2024-01-05'\n" +
		"'INV-2','9','1','2024-01-06'\n"
)

// writeFiles creates dir/name for each entry and returns dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func japanTarget(t *testing.T, srcDir string) region.Target {
	t.Helper()
	p, err := region.Lookup("japan")
	if err != nil {
		t.Fatal(err)
	}
	p.Tables = []region.TableSource{
		{File: "japan_items.csv", Table: region.ItemsTable},
		{File: "sales_data.csv", Table: region.SalesTable},
	}
	return region.Target{
		Profile:   p,
		SourceDir: srcDir,
		Staging:   storage.Config{Kind: "sqlite", DSN: filepath.Join(t.TempDir(), "stage", "japan_staging_area.db")},
	}
}

func readAll(t *testing.T, cfg storage.Config, table string) *frame.Frame {
	t.Helper()
	cfg.MustExist = true
	repo, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open %s: %v", cfg.DSN, err)
	}
	defer repo.Close()
	f, err := repo.ReadTable(context.Background(), table)
	if err != nil {
		t.Fatalf("read %s: %v", table, err)
	}
	return f
}

func TestRunLoadsEveryTable(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"japan_items.csv": japanItems,
		"sales_data.csv":  japanSales,
	})
	tgt := japanTarget(t, dir)

	if err := Run(context.Background(), []region.Target{tgt}, Options{Job: "test", SampleRows: 5, Verbose: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	items := readAll(t, tgt.Staging, region.ItemsTable)
	want := frame.New(
		[]string{"id", "product_name", "category", "price"},
		[][]any{
			{int64(1), " Green Tea ", "Drinks", int64(1000)},
			{int64(2), "Rice", "Food", int64(250)},
		},
	)
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("items =\n%v\nwant\n%v", items, want)
	}
	sales := readAll(t, tgt.Staging, region.SalesTable)
	if sales.Len() != 2 || sales.Columns[0] != "invoice_id" {
		t.Fatalf("sales_data =\n%v", sales)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"japan_items.csv": japanItems,
		"sales_data.csv":  japanSales,
	})
	tgt := japanTarget(t, dir)
	ctx := context.Background()

	if err := Run(ctx, []region.Target{tgt}, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := readAll(t, tgt.Staging, region.SalesTable)
	if err := Run(ctx, []region.Target{tgt}, Options{}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := readAll(t, tgt.Staging, region.SalesTable)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-run changed table:\n%v\n---\n%v", first, second)
	}
}

func TestRunMissingFileKeepsEarlierTables(t *testing.T) {
	dir := writeFiles(t, map[string]string{"japan_items.csv": japanItems})
	tgt := japanTarget(t, dir)

	err := Run(context.Background(), []region.Target{tgt}, Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
	if items := readAll(t, tgt.Staging, region.ItemsTable); items.Len() != 2 {
		t.Fatalf("items rows = %d, want 2", items.Len())
	}
}

func TestRunRowWithExtraFieldsAborts(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"japan_items.csv": japanItems + "'3','Miso','Food','300','extra'\n",
		"sales_data.csv":  japanSales,
	})
	tgt := japanTarget(t, dir)

	err := Run(context.Background(), []region.Target{tgt}, Options{})
	if err == nil || !strings.Contains(err.Error(), "japan_items.csv") {
		t.Fatalf("err = %v, want a parse error naming japan_items.csv", err)
	}
}

func TestRunStopsBeforeLaterRegions(t *testing.T) {
	bad := japanTarget(t, t.TempDir())
	good := japanTarget(t, writeFiles(t, map[string]string{
		"japan_items.csv": japanItems,
		"sales_data.csv":  japanSales,
	}))
	good.Key = "myanmar"

	err := Run(context.Background(), []region.Target{bad, good}, Options{})
	if err == nil {
		t.Fatalf("Run: want error")
	}
	if _, statErr := os.Stat(good.Staging.DSN); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("second region was extracted after a failure: %v", statErr)
	}
}

type fakeRepo struct {
	replaced []string
	closed   bool
}

func (f *fakeRepo) ReplaceTable(_ context.Context, table string, fr *frame.Frame) (int64, error) {
	f.replaced = append(f.replaced, table)
	return int64(fr.Len()), nil
}

func (f *fakeRepo) ReadTable(context.Context, string) (*frame.Frame, error) {
	return nil, storage.ErrTableNotFound
}

func (f *fakeRepo) Sample(context.Context, string, int) (*frame.Frame, error) {
	return nil, storage.ErrTableNotFound
}

func (f *fakeRepo) Close() { f.closed = true }

// TestVerifyFailureIsReported swaps the store for a fake whose reads fail.
// It mutates package state, so it does not run in parallel.
func TestVerifyFailureIsReported(t *testing.T) {
	fake := &fakeRepo{}
	old := openStore
	openStore = func(context.Context, storage.Config) (storage.Repository, error) { return fake, nil }
	t.Cleanup(func() { openStore = old })

	dir := writeFiles(t, map[string]string{
		"japan_items.csv": japanItems,
		"sales_data.csv":  japanSales,
	})
	err := Run(context.Background(), []region.Target{japanTarget(t, dir)}, Options{SampleRows: 3})
	if !errors.Is(err, storage.ErrTableNotFound) {
		t.Fatalf("err = %v, want ErrTableNotFound", err)
	}
	if want := []string{region.ItemsTable, region.SalesTable}; !reflect.DeepEqual(fake.replaced, want) {
		t.Fatalf("replaced = %v, want %v", fake.replaced, want)
	}
	if !fake.closed {
		t.Fatalf("store not closed")
	}

	fake.replaced = nil
	if err := Run(context.Background(), []region.Target{japanTarget(t, dir)}, Options{SampleRows: -1}); err != nil {
		t.Fatalf("Run with sampling disabled: %v", err)
	}
}
