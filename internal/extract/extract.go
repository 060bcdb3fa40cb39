// Package extract loads each region's source CSV files into that region's
// staging store, one full-replace table per file.
package extract

import (
	"context"
	"fmt"
	"log"

	"salesetl/internal/datasource"
	"salesetl/internal/datasource/file"
	"salesetl/internal/metrics"
	"salesetl/internal/parser"
	pcsv "salesetl/internal/parser/csv"
	"salesetl/internal/region"
	"salesetl/internal/storage"
)

// Step is the metrics step name of this stage.
const Step = "extract"

// Options tunes a run.
type Options struct {
	// Job labels metrics.
	Job string

	// SampleRows is how many rows of each table are read back and logged
	// after loading. Zero or negative skips the verification pass.
	SampleRows int

	// Parallel extracts all regions at once.
	Parallel bool

	// Verbose logs the sampled rows.
	Verbose bool
}

// Test seams.
var (
	openStore  = storage.New
	openSource = func(dir string) datasource.Source { return file.NewLocal(dir) }
	newParser  = func() parser.Parser { return pcsv.NewParser(pcsv.DefaultOptions()) }
)

// Run extracts every target. In sequential mode the first failure stops the
// remaining regions; tables already written are kept.
func Run(ctx context.Context, targets []region.Target, opt Options) error {
	return region.Each(ctx, targets, opt.Parallel, func(ctx context.Context, t region.Target) error {
		done := metrics.Timer(opt.Job, Step, t.Key)
		err := extractRegion(ctx, t, opt)
		done(err)
		if err != nil {
			return fmt.Errorf("extract: %s: %w", t.Key, err)
		}
		return nil
	})
}

func extractRegion(ctx context.Context, t region.Target, opt Options) error {
	cfg := t.Staging
	cfg.MustExist = false
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open staging: %w", err)
	}
	defer repo.Close()

	src := openSource(t.SourceDir)
	for _, ts := range t.Tables {
		if err := loadTable(ctx, repo, src, t.Key, ts, opt.Job); err != nil {
			return err
		}
	}

	if opt.SampleRows > 0 {
		for _, ts := range t.Tables {
			if err := verifyTable(ctx, repo, t.Key, ts.Table, opt.SampleRows, opt.Verbose); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadTable(ctx context.Context, repo storage.Repository, src datasource.Source, key string, ts region.TableSource, job string) error {
	rc, err := src.Open(ctx, ts.File)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, skipped, err := newParser().Parse(rc)
	if err != nil {
		return fmt.Errorf("parse %s: %w", ts.File, err)
	}
	n, err := repo.ReplaceTable(ctx, ts.Table, f)
	if err != nil {
		return fmt.Errorf("load %s into %s: %w", ts.File, ts.Table, err)
	}

	log.Printf("extract: region=%s file=%s table=%s rows=%d skipped=%d", key, ts.File, ts.Table, n, skipped)
	metrics.RecordRows(job, key, metrics.RowsExtracted, n)
	metrics.RecordRows(job, key, metrics.RowsSkipped, int64(skipped))
	return nil
}

func verifyTable(ctx context.Context, repo storage.Repository, key, table string, limit int, verbose bool) error {
	f, err := repo.Sample(ctx, table, limit)
	if err != nil {
		return fmt.Errorf("verify %s: %w", table, err)
	}
	log.Printf("extract: region=%s table=%s sampled=%d", key, table, f.Len())
	if verbose {
		log.Printf("extract: first rows of %s.%s:\n%s", key, table, f)
	}
	return nil
}
