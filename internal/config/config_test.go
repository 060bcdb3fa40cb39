package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// -----------------------------------------------------------------------------
// Decoding and defaults
// -----------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	t.Parallel()

	p := Default()
	if p.Job != "salesetl" {
		t.Fatalf("job = %q", p.Job)
	}
	want := []Region{
		{Name: "japan", SourceDir: filepath.Join("data", "japan"), Staging: Store{Kind: "sqlite", DSN: filepath.Join("staging", "japan_staging_area.db")}},
		{Name: "myanmar", SourceDir: filepath.Join("data", "myanmar"), Staging: Store{Kind: "sqlite", DSN: filepath.Join("staging", "myanmar_staging_area.db")}},
	}
	if !reflect.DeepEqual(p.Regions, want) {
		t.Fatalf("regions = %+v, want %+v", p.Regions, want)
	}
	if p.Transformation != (Store{Kind: "sqlite", DSN: "staging/transformed_data.db"}) {
		t.Fatalf("transformation = %+v", p.Transformation)
	}
	if p.Presentation != (Store{Kind: "sqlite", DSN: "presentation/final_sales.db"}) {
		t.Fatalf("presentation = %+v", p.Presentation)
	}
	if p.Extract.SampleRows != 5 || p.Metrics.Backend != "none" {
		t.Fatalf("extract/metrics defaults = %+v / %+v", p.Extract, p.Metrics)
	}
	if issues := Validate(p); len(issues) != 0 {
		t.Fatalf("Default() has issues: %v", issues)
	}
}

func TestDecode_FillsDefaults(t *testing.T) {
	t.Parallel()

	const js = `{
	  "regions": [
	    { "name": "myanmar", "source_dir": "in/mm" },
	    { "name": "japan", "staging": { "kind": "sqlite", "dsn": "/tmp/jp.db" } }
	  ],
	  "presentation": { "kind": "postgres", "dsn": "postgresql://u:p@db:5432/final" },
	  "runtime": { "parallel_regions": true }
	}`

	p, err := Decode([]byte(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Job != DefaultJob {
		t.Fatalf("job = %q, want default", p.Job)
	}
	if got := p.Regions[0]; got.SourceDir != "in/mm" || got.Staging.DSN != filepath.Join("staging", "myanmar_staging_area.db") {
		t.Fatalf("regions[0] = %+v", got)
	}
	if got := p.Regions[1]; got.SourceDir != filepath.Join("data", "japan") || got.Staging.DSN != "/tmp/jp.db" {
		t.Fatalf("regions[1] = %+v", got)
	}
	if p.Presentation.Kind != "postgres" || p.Presentation.DSN != "postgresql://u:p@db:5432/final" {
		t.Fatalf("presentation = %+v", p.Presentation)
	}
	if p.Transformation.DSN != DefaultTransformDSN {
		t.Fatalf("transformation = %+v", p.Transformation)
	}
	if !p.Runtime.ParallelRegions {
		t.Fatalf("runtime.parallel_regions not decoded")
	}
}

func TestDecode_NonSQLiteStoreKeepsEmptyDSN(t *testing.T) {
	t.Parallel()

	p, err := Decode([]byte(`{"presentation": {"kind": "mysql"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Presentation.DSN != "" {
		t.Fatalf("mysql presentation got sqlite default DSN %q", p.Presentation.DSN)
	}
	if Errors(Validate(p)) == nil {
		t.Fatalf("Validate: want error for empty mysql dsn")
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"storage": {}}`)); err == nil {
		t.Fatalf("Decode: want error for unknown field")
	}
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatalf("Decode: want error for truncated JSON")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "salesetl.json")
	if err := os.WriteFile(path, []byte(`{"job": "nightly", "extract": {"sample_rows": -1}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "nightly" || p.Extract.SampleRows != -1 {
		t.Fatalf("Load = %+v", p)
	}

	_, err = Load(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load(missing) = %v, want ErrNotExist", err)
	}
}

// -----------------------------------------------------------------------------
// Environment overrides
// -----------------------------------------------------------------------------

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"SALESETL_STAGING_DIR":       "/var/lib/salesetl",
		"SALESETL_TRANSFORM_DSN":     "/var/lib/salesetl/t.db",
		"SALESETL_PRESENTATION_KIND": "mssql",
		"SALESETL_PRESENTATION_DSN":  "sqlserver://sa:pw@db:1433?database=final",
		"METRICS_BACKEND":            "datadog",
		"DD_AGENT_ADDR":              "127.0.0.1:8125",
	}
	base := Default()
	p := ApplyEnv(base, func(k string) string { return env[k] })

	if got := p.Regions[0].Staging.DSN; got != filepath.Join("/var/lib/salesetl", "japan_staging_area.db") {
		t.Fatalf("japan staging = %q", got)
	}
	if got := base.Regions[0].Staging.DSN; got != filepath.Join("staging", "japan_staging_area.db") {
		t.Fatalf("ApplyEnv mutated input regions: %q", got)
	}
	if p.Transformation.DSN != "/var/lib/salesetl/t.db" {
		t.Fatalf("transformation = %+v", p.Transformation)
	}
	if p.Presentation.Kind != "mssql" || p.Presentation.DSN != env["SALESETL_PRESENTATION_DSN"] {
		t.Fatalf("presentation = %+v", p.Presentation)
	}
	if p.Metrics.Backend != "datadog" || p.Metrics.DatadogAddr != "127.0.0.1:8125" || p.Metrics.PushgatewayURL != "" {
		t.Fatalf("metrics = %+v", p.Metrics)
	}
}

func TestApplyEnv_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	p := ApplyEnv(Default(), func(string) string { return "" })
	if !reflect.DeepEqual(p, Default()) {
		t.Fatalf("ApplyEnv with empty env changed config: %+v", p)
	}
}

// -----------------------------------------------------------------------------
// Targets
// -----------------------------------------------------------------------------

func TestTargets(t *testing.T) {
	t.Parallel()

	p := Default()
	p.Runtime.Verbose = true
	ts, err := p.Targets()
	if err != nil {
		t.Fatalf("Targets: %v", err)
	}
	if len(ts) != 2 || ts[0].Key != "japan" || ts[1].Country != "Myanmar" {
		t.Fatalf("Targets = %+v", ts)
	}
	if ts[0].Staging.Kind != "sqlite" || !ts[0].Staging.Verbose || ts[0].Staging.MustExist {
		t.Fatalf("japan staging = %+v", ts[0].Staging)
	}

	p.Regions = append(p.Regions, Region{Name: "atlantis"})
	if _, err := p.Targets(); err == nil {
		t.Fatalf("Targets: want error for unknown region")
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	t.Parallel()

	p, err := Load(filepath.Join("..", "..", "configs", "salesetl.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Errors(Validate(p)); err != nil {
		t.Fatalf("shipped config invalid: %v", err)
	}
	if !reflect.DeepEqual(p, Default()) {
		t.Fatalf("shipped config drifted from Default:\n%+v\n%+v", p, Default())
	}
}
