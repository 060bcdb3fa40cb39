// Command consolidate builds final_global_sales in the presentation store
// from the regional staging stores.
package main

import (
	"context"

	"salesetl/internal/app"
	"salesetl/internal/config"
	"salesetl/internal/consolidate"
	"salesetl/internal/region"

	// register all backends with the storage factory.
	_ "salesetl/internal/storage/all"
)

func main() {
	app.Main("consolidate", func(ctx context.Context, p config.Pipeline, targets []region.Target) error {
		out := p.Presentation.Storage()
		out.Verbose = p.Runtime.Verbose
		return consolidate.Run(ctx, targets, consolidate.Options{
			Job:          p.Job,
			Presentation: out,
			Parallel:     p.Runtime.ParallelRegions,
			Verbose:      p.Runtime.Verbose,
		})
	})
}
