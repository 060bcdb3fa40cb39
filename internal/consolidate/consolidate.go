// Package consolidate joins each region's sales facts with its items,
// converts totals to USD and writes the union of all regions to the
// presentation table.
package consolidate

import (
	"context"
	"fmt"
	"log"

	"salesetl/internal/frame"
	"salesetl/internal/metrics"
	"salesetl/internal/region"
	"salesetl/internal/storage"
	"salesetl/internal/transformer"
	"salesetl/internal/transformer/builtin"
)

// Step is the metrics step name of this stage.
const Step = "consolidate"

// FinalTable is the presentation table.
const FinalTable = "final_global_sales"

// Columns is the presentation schema, in order.
var Columns = []string{"invoice_id", "product_name", "category", "quantity", "total_usd", "country", "date"}

// Fact and item columns the join and total depend on.
const (
	productIDColumn = "product_id"
	itemIDColumn    = "id"
	priceColumn     = "price"
	quantityColumn  = "quantity"
)

// Options tunes a run.
type Options struct {
	Job string

	// Presentation locates the store receiving FinalTable.
	Presentation storage.Config

	// Parallel reads and joins all regions at once. Output order is still
	// target order.
	Parallel bool

	Verbose bool
}

var openStore = storage.New

// Build joins one region's sales and items frames into presentation rows.
// Sales rows without a matching item are dropped; a sales row matching
// several items yields one row per match. Sales order is preserved.
func Build(sales, items *frame.Frame, p region.Profile) (*frame.Frame, error) {
	items, err := transformer.Chain{
		builtin.TrimColumnNames{},
		builtin.Rename{Columns: p.ItemRename},
	}.Apply(items)
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	sales, err = builtin.TrimColumnNames{}.Apply(sales)
	if err != nil {
		return nil, fmt.Errorf("sales: %w", err)
	}

	joined, err := frame.InnerJoin(sales, items, productIDColumn, itemIDColumn)
	if err != nil {
		return nil, err
	}
	pi, err := joined.Lookup(priceColumn)
	if err != nil {
		return nil, err
	}
	qi, err := joined.Lookup(quantityColumn)
	if err != nil {
		return nil, err
	}
	if err := joined.AddColumn("total_usd", func(row []any) (any, error) {
		return p.Rate.Total(row[qi], row[pi])
	}); err != nil {
		return nil, err
	}
	if err := joined.AddColumn("country", func([]any) (any, error) { return p.Country, nil }); err != nil {
		return nil, err
	}
	return joined.Select(Columns...)
}

// Run consolidates every target and replaces FinalTable. Nothing is written
// unless every region succeeds.
func Run(ctx context.Context, targets []region.Target, opt Options) error {
	parts := make([]*frame.Frame, len(targets))
	idx := make(map[string]int, len(targets))
	for i, t := range targets {
		idx[t.Key] = i
	}
	err := region.Each(ctx, targets, opt.Parallel, func(ctx context.Context, t region.Target) error {
		done := metrics.Timer(opt.Job, Step, t.Key)
		f, err := consolidateRegion(ctx, t, opt.Job)
		done(err)
		if err != nil {
			return fmt.Errorf("consolidate: %s: %w", t.Key, err)
		}
		parts[idx[t.Key]] = f
		return nil
	})
	if err != nil {
		return err
	}

	all, err := frame.Concat(parts...)
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}
	if len(all.Columns) == 0 {
		all.Columns = append([]string(nil), Columns...)
	}

	repo, err := openStore(ctx, opt.Presentation)
	if err != nil {
		return fmt.Errorf("consolidate: open presentation store: %w", err)
	}
	defer repo.Close()
	n, err := repo.ReplaceTable(ctx, FinalTable, all)
	if err != nil {
		return fmt.Errorf("consolidate: write %s: %w", FinalTable, err)
	}
	log.Printf("consolidate: table=%s rows=%d regions=%d", FinalTable, n, len(targets))
	if opt.Verbose {
		log.Printf("consolidate: first rows of %s:\n%s", FinalTable, all.Head(5))
	}
	metrics.RecordRows(opt.Job, "all", metrics.RowsLoaded, n)
	return nil
}

func consolidateRegion(ctx context.Context, t region.Target, job string) (*frame.Frame, error) {
	cfg := t.Staging
	cfg.MustExist = true
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open staging: %w", err)
	}
	defer repo.Close()

	sales, err := repo.ReadTable(ctx, region.SalesTable)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", region.SalesTable, err)
	}
	items, err := repo.ReadTable(ctx, region.ItemsTable)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", region.ItemsTable, err)
	}
	f, err := Build(sales, items, t.Profile)
	if err != nil {
		return nil, err
	}
	orphans := int64(sales.Len() - f.Len())
	log.Printf("consolidate: region=%s sales=%d items=%d rows=%d", t.Key, sales.Len(), items.Len(), f.Len())
	metrics.RecordRows(job, t.Key, metrics.RowsOrphans, orphans)
	return f, nil
}
