package region

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	jp, err := Lookup(" Japan ")
	if err != nil {
		t.Fatalf("Lookup(Japan): %v", err)
	}
	if jp.Country != "Japan" || jp.DisplayColumn != "product_name" || jp.Rate.IsIdentity() {
		t.Fatalf("japan profile = %+v", jp)
	}
	mm, err := Lookup("myanmar")
	if err != nil {
		t.Fatalf("Lookup(myanmar): %v", err)
	}
	if !mm.Rate.IsIdentity() || mm.ItemRename["type"] != "category" || mm.DisplayColumn != "name" {
		t.Fatalf("myanmar profile = %+v", mm)
	}
	if _, err := Lookup("thailand"); err == nil {
		t.Fatalf("Lookup(thailand): want error")
	}
}

func TestProfilesShape(t *testing.T) {
	t.Parallel()

	if got, want := Names(), []string{"japan", "myanmar"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	for _, p := range All() {
		var tables []string
		for _, ts := range p.Tables {
			tables = append(tables, ts.Table)
		}
		if !sort.StringsAreSorted(tables) {
			t.Errorf("%s: tables not in sorted order: %v", p.Key, tables)
		}
		hasItems, hasSales := false, false
		for _, tb := range tables {
			hasItems = hasItems || tb == ItemsTable
			hasSales = hasSales || tb == SalesTable
		}
		if !hasItems || !hasSales {
			t.Errorf("%s: missing items/sales_data mapping: %v", p.Key, tables)
		}
	}
	if got := profiles[1].CleanTable(); got != "clean_myanmar_items" {
		t.Fatalf("CleanTable = %q", got)
	}
}

func targets() []Target {
	var out []Target
	for _, p := range All() {
		out = append(out, Target{Profile: p})
	}
	return out
}

func TestEachSequentialOrderAndStop(t *testing.T) {
	t.Parallel()

	var seen []string
	err := Each(context.Background(), targets(), false, func(ctx context.Context, tg Target) error {
		seen = append(seen, tg.Key)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if !reflect.DeepEqual(seen, []string{"japan", "myanmar"}) {
		t.Fatalf("order = %v", seen)
	}

	boom := errors.New("boom")
	seen = nil
	err = Each(context.Background(), targets(), false, func(ctx context.Context, tg Target) error {
		seen = append(seen, tg.Key)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !reflect.DeepEqual(seen, []string{"japan"}) {
		t.Fatalf("sequential mode kept going after failure: %v", seen)
	}
}

func TestEachParallel(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	err := Each(context.Background(), targets(), true, func(ctx context.Context, tg Target) error {
		mu.Lock()
		seen[tg.Key] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if !seen["japan"] || !seen["myanmar"] {
		t.Fatalf("seen = %v", seen)
	}
}

func TestEachCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Each(ctx, targets(), false, func(ctx context.Context, tg Target) error {
		t.Errorf("fn called with canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
