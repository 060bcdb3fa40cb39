// Package config defines the canonical, JSON-serializable configuration model
// shared by the extract, clean and consolidate binaries. Decoding is performed
// by encoding/json; no third-party config libraries.
//
// Example (trimmed):
//
//	{
//	  "job": "salesetl",
//	  "regions": [
//	    { "name": "japan", "source_dir": "data/japan",
//	      "staging": { "kind": "sqlite", "dsn": "staging/japan_staging_area.db" } }
//	  ],
//	  "presentation": { "kind": "postgres", "dsn": "postgresql://..." },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://pushgateway:9091" }
//	}
//
// Missing fields take the values from Default.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"salesetl/internal/region"
	"salesetl/internal/storage"
)

// Default locations.
const (
	DefaultJob          = "salesetl"
	DefaultStagingDir   = "staging"
	DefaultSampleRows   = 5
	DefaultTransformDSN = "staging/transformed_data.db"
	DefaultFinalDSN     = "presentation/final_sales.db"
)

// Pipeline is the top-level object decoded from a config file
// (e.g., configs/salesetl.json).
type Pipeline struct {
	// Job labels metrics and log lines.
	Job string `json:"job"`

	// Regions lists the regions to process, in order.
	Regions []Region `json:"regions"`

	// Transformation receives the cleaner's clean_<region>_items tables.
	Transformation Store `json:"transformation"`

	// Presentation receives final_global_sales.
	Presentation Store `json:"presentation"`

	Extract ExtractConfig `json:"extract"`
	Runtime RuntimeConfig `json:"runtime"`
	Metrics MetricsConfig `json:"metrics"`
}

// Region locates one region's inputs and staging store.
type Region struct {
	// Name is a region key known to package region ("japan", "myanmar").
	Name string `json:"name"`

	// SourceDir holds the region's CSV files.
	SourceDir string `json:"source_dir"`

	Staging Store `json:"staging"`
}

// Store selects a storage backend and its connection string.
type Store struct {
	// Kind is a storage backend kind: "sqlite", "postgres", "mysql", "mssql".
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
}

// Storage converts s into a storage.Config.
func (s Store) Storage() storage.Config {
	return storage.Config{Kind: s.Kind, DSN: s.DSN}
}

// ExtractConfig tunes the extractor.
type ExtractConfig struct {
	// SampleRows is how many rows of each staging table are read back and
	// logged after loading. Zero means DefaultSampleRows; negative disables
	// the verification pass.
	SampleRows int `json:"sample_rows"`
}

// RuntimeConfig controls execution.
type RuntimeConfig struct {
	// ParallelRegions processes regions concurrently where a stage allows it.
	ParallelRegions bool `json:"parallel_regions"`

	// Verbose enables per-batch and sample logging. The -v flag sets it too.
	Verbose bool `json:"verbose"`
}

// MetricsConfig selects a metrics backend.
type MetricsConfig struct {
	// Backend is "none" (default), "pushgateway" or "datadog".
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Default returns the built-in layout: SQLite staging files under staging/,
// CSV inputs under data/<region>, and SQLite transformation and presentation
// stores.
func Default() Pipeline {
	p := Pipeline{Job: DefaultJob}
	for _, name := range region.Names() {
		p.Regions = append(p.Regions, defaultRegion(name))
	}
	p.Transformation = Store{Kind: "sqlite", DSN: DefaultTransformDSN}
	p.Presentation = Store{Kind: "sqlite", DSN: DefaultFinalDSN}
	p.Extract.SampleRows = DefaultSampleRows
	p.Metrics.Backend = "none"
	return p
}

func defaultRegion(name string) Region {
	return Region{
		Name:      name,
		SourceDir: filepath.Join("data", name),
		Staging:   Store{Kind: "sqlite", DSN: stagingDSN(DefaultStagingDir, name)},
	}
}

func stagingDSN(dir, name string) string {
	return filepath.Join(dir, name+"_staging_area.db")
}

// Load reads and decodes the JSON file at path. Unknown fields are rejected;
// missing ones are filled from Default.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(b)
}

// Decode decodes a JSON config document and fills defaults.
func Decode(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	p.fillDefaults()
	return p, nil
}

func (p *Pipeline) fillDefaults() {
	d := Default()
	if p.Job == "" {
		p.Job = d.Job
	}
	if len(p.Regions) == 0 {
		p.Regions = d.Regions
	}
	for i := range p.Regions {
		r := &p.Regions[i]
		def := defaultRegion(r.Name)
		if r.SourceDir == "" {
			r.SourceDir = def.SourceDir
		}
		if r.Staging.Kind == "" {
			r.Staging.Kind = def.Staging.Kind
		}
		if r.Staging.DSN == "" && r.Staging.Kind == "sqlite" {
			r.Staging.DSN = def.Staging.DSN
		}
	}
	fillStore(&p.Transformation, d.Transformation)
	fillStore(&p.Presentation, d.Presentation)
	if p.Extract.SampleRows == 0 {
		p.Extract.SampleRows = d.Extract.SampleRows
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = d.Metrics.Backend
	}
}

func fillStore(s *Store, def Store) {
	if s.Kind == "" {
		s.Kind = def.Kind
	}
	if s.DSN == "" && s.Kind == def.Kind {
		s.DSN = def.DSN
	}
}

// ApplyEnv overrides p from environment variables read through getenv:
//
//	SALESETL_STAGING_DIR        directory of every sqlite staging store
//	SALESETL_TRANSFORM_DSN      transformation store DSN
//	SALESETL_PRESENTATION_KIND  presentation backend kind
//	SALESETL_PRESENTATION_DSN   presentation DSN
//	METRICS_BACKEND             none | pushgateway | datadog
//	PUSHGATEWAY_URL             Pushgateway base URL
//	DD_AGENT_ADDR               DogStatsD address
//
// Empty variables are ignored.
func ApplyEnv(p Pipeline, getenv func(string) string) Pipeline {
	if getenv == nil {
		getenv = os.Getenv
	}
	if dir := getenv("SALESETL_STAGING_DIR"); dir != "" {
		regions := make([]Region, len(p.Regions))
		copy(regions, p.Regions)
		for i := range regions {
			if regions[i].Staging.Kind == "sqlite" {
				regions[i].Staging.DSN = stagingDSN(dir, regions[i].Name)
			}
		}
		p.Regions = regions
	}
	if v := getenv("SALESETL_TRANSFORM_DSN"); v != "" {
		p.Transformation.DSN = v
	}
	if v := getenv("SALESETL_PRESENTATION_KIND"); v != "" {
		p.Presentation.Kind = v
	}
	if v := getenv("SALESETL_PRESENTATION_DSN"); v != "" {
		p.Presentation.DSN = v
	}
	if v := getenv("METRICS_BACKEND"); v != "" {
		p.Metrics.Backend = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		p.Metrics.PushgatewayURL = v
	}
	if v := getenv("DD_AGENT_ADDR"); v != "" {
		p.Metrics.DatadogAddr = v
	}
	return p
}

// Targets resolves the configured regions against their profiles.
func (p Pipeline) Targets() ([]region.Target, error) {
	out := make([]region.Target, 0, len(p.Regions))
	for i, r := range p.Regions {
		prof, err := region.Lookup(r.Name)
		if err != nil {
			return nil, fmt.Errorf("regions[%d]: %w", i, err)
		}
		st := r.Staging.Storage()
		st.Verbose = p.Runtime.Verbose
		out = append(out, region.Target{Profile: prof, SourceDir: r.SourceDir, Staging: st})
	}
	return out, nil
}
