// Package clean standardizes each region's raw items table and writes it to
// the transformation store as clean_<region>_items.
package clean

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
const Step = "clean"

// Price columns of the items table.
const (
	PriceColumn    = "price"
	PriceUSDColumn = "price_usd"
)

// Options tunes a run.
type Options struct {
	Job string

	// Transformation locates the store receiving the cleaned tables.
	Transformation storage.Config

	Verbose bool
}

var openStore = storage.New

// Chain returns the cleaning steps for p, in order.
func Chain(p region.Profile) transformer.Chain {
	return transformer.Chain{
		builtin.TrimColumnNames{},
		builtin.TrimValues{Columns: []string{p.DisplayColumn}},
		builtin.Rename{Columns: p.ItemRename},
		builtin.Convert{From: PriceColumn, To: PriceUSDColumn, Rate: p.Rate},
		builtin.DeDup{Policy: builtin.KeepFirst},
	}
}

// Items applies Chain(p) to a raw items frame.
func Items(raw *frame.Frame, p region.Profile) (*frame.Frame, error) {
	return Chain(p).Apply(raw)
}

// Run cleans every target in order. All staging stores must exist before
// any region is processed. The first failure stops the run; tables already
// written are kept.
func Run(ctx context.Context, targets []region.Target, opt Options) error {
	stores := make([]storage.Repository, 0, len(targets))
	defer func() {
		for _, s := range stores {
			s.Close()
		}
	}()
	for _, t := range targets {
		cfg := t.Staging
		cfg.MustExist = true
		s, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("clean: %s: open staging: %w", t.Key, err)
		}
		stores = append(stores, s)
	}

	out, err := openStore(ctx, opt.Transformation)
	if err != nil {
		return fmt.Errorf("clean: open transformation store: %w", err)
	}
	defer out.Close()

	for i, t := range targets {
		done := metrics.Timer(opt.Job, Step, t.Key)
		err := cleanRegion(ctx, stores[i], out, t.Profile, opt)
		done(err)
		if err != nil {
			return fmt.Errorf("clean: %s: %w", t.Key, err)
		}
	}
	return nil
}

func cleanRegion(ctx context.Context, in, out storage.Repository, p region.Profile, opt Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := in.ReadTable(ctx, region.ItemsTable)
	if err != nil {
		return fmt.Errorf("read %s: %w", region.ItemsTable, err)
	}
	cleaned, err := Items(raw, p)
	if err != nil {
		return err
	}
	n, err := out.ReplaceTable(ctx, p.CleanTable(), cleaned)
	if err != nil {
		return fmt.Errorf("write %s: %w", p.CleanTable(), err)
	}

	dups := int64(raw.Len() - cleaned.Len())
	log.Printf("clean: region=%s table=%s rows=%d duplicates=%d", p.Key, p.CleanTable(), n, dups)
	if opt.Verbose {
		log.Printf("clean: first rows of %s:\n%s", p.CleanTable(), cleaned.Head(5))
	}
	metrics.RecordRows(opt.Job, p.Key, metrics.RowsCleaned, n)
	metrics.RecordRows(opt.Job, p.Key, metrics.RowsDuplicates, dups)
	return nil
}
