// Package region holds the per-region profiles that drive every stage. All
// differences between the Japan and Myanmar exports (file names, column
// names, currency) live here as data; stage code never branches on a region.
package region

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"salesetl/internal/currency"
	"salesetl/internal/storage"
)

// Staging table names read by the cleaner and consolidator.
const (
	ItemsTable = "items"
	SalesTable = "sales_data"
)

// TableSource maps one source file onto the staging table it loads.
type TableSource struct {
	File  string
	Table string
}

// Profile describes one region.
type Profile struct {
	// Key is the lower-case identifier used in config, table names and logs.
	Key string
	// Country is the literal written to the presentation "country" column.
	Country string
	// Tables lists the source files in load order.
	Tables []TableSource
	// DisplayColumn is the raw items column holding the product name.
	DisplayColumn string
	// ItemRename maps raw items columns to their canonical names.
	ItemRename map[string]string
	// Rate converts item prices to USD.
	Rate currency.Rate
}

// CleanTable is the transformation-store table the cleaner writes.
func (p Profile) CleanTable() string { return "clean_" + p.Key + "_items" }

var profiles = []Profile{
	{
		Key:     "japan",
		Country: "Japan",
		Tables: []TableSource{
			{File: "japan_branch.csv", Table: "branch"},
			{File: "japan_Customers.csv", Table: "customers"},
			{File: "japan_items.csv", Table: ItemsTable},
			{File: "japan_payment.csv", Table: "payment"},
			{File: "sales_data.csv", Table: SalesTable},
		},
		DisplayColumn: "product_name",
		Rate:          currency.MustRate("JPY", currency.USD, "0.0065"),
	},
	{
		Key:     "myanmar",
		Country: "Myanmar",
		Tables: []TableSource{
			{File: "myanmar_branch.csv", Table: "branch"},
			{File: "myanmar_customers.csv", Table: "customers"},
			{File: "myanmar_items.csv", Table: ItemsTable},
			{File: "myanmar_payments.csv", Table: "payments"},
			{File: "sales_data.csv", Table: SalesTable},
		},
		DisplayColumn: "name",
		ItemRename:    map[string]string{"name": "product_name", "type": "category"},
		Rate:          currency.Identity(currency.USD),
	},
}

// All returns the profiles in processing order (Japan, then Myanmar).
func All() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Names returns the profile keys in processing order.
func Names() []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.Key
	}
	return out
}

// Lookup returns the profile for key (case-insensitive).
func Lookup(key string) (Profile, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, p := range profiles {
		if p.Key == k {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown region %q (known: %s)", key, strings.Join(Names(), ", "))
}

// Target binds a profile to the locations of one run.
type Target struct {
	Profile
	// SourceDir holds the region's CSV files.
	SourceDir string
	// Staging locates the region's staging store.
	Staging storage.Config
}

// Each calls fn for every target. Sequential mode preserves target order
// and stops at the first error. Parallel mode runs all targets at once; the
// first error cancels the context passed to the others. Each returns the
// first error.
func Each(ctx context.Context, targets []Target, parallel bool, fn func(ctx context.Context, t Target) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if !parallel {
		g.SetLimit(1)
	}
	for _, t := range targets {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, t)
		})
	}
	return g.Wait()
}
