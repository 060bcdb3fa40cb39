// Command extract loads each region's CSV files into its staging store.
package main

import (
	"context"

	"salesetl/internal/app"
	"salesetl/internal/config"
	"salesetl/internal/extract"
	"salesetl/internal/region"

	// register all backends with the storage factory.
	_ "salesetl/internal/storage/all"
)

func main() {
	app.Main("extract", func(ctx context.Context, p config.Pipeline, targets []region.Target) error {
		return extract.Run(ctx, targets, extract.Options{
			Job:        p.Job,
			SampleRows: p.Extract.SampleRows,
			Parallel:   p.Runtime.ParallelRegions,
			Verbose:    p.Runtime.Verbose,
		})
	})
}
