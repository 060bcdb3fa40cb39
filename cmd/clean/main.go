// Command clean writes the standardized clean_<region>_items tables to the
// transformation store.
package main

import (
	"context"

	"salesetl/internal/app"
	"salesetl/internal/clean"
	"salesetl/internal/config"
	"salesetl/internal/region"

	// register all backends with the storage factory.
	_ "salesetl/internal/storage/all"
)

func main() {
	app.Main("clean", func(ctx context.Context, p config.Pipeline, targets []region.Target) error {
		out := p.Transformation.Storage()
		out.Verbose = p.Runtime.Verbose
		return clean.Run(ctx, targets, clean.Options{
			Job:            p.Job,
			Transformation: out,
			Verbose:        p.Runtime.Verbose,
		})
	})
}
