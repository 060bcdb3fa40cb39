// Package config provides configuration models and helpers for the stages.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"errors"
	"fmt"
	"strings"

	"salesetl/internal/region"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "presentation.kind",
// "regions[1].staging.dsn"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors joins the error-severity issues into one error, or returns nil when
// there are none.
func Errors(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

var knownStores = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
}

// Validate performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers may decide whether to treat
// warnings as fatal or not; the binaries log them and stop only on errors.
//
// Example:
//
//	p, err := config.Load("configs/salesetl.json")
//	if err != nil { ... }
//	for _, iss := range config.Validate(p) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Validate(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateRegions(p.Regions)...)
	issues = append(issues, validateStore("transformation", p.Transformation)...)
	issues = append(issues, validateStore("presentation", p.Presentation)...)
	issues = append(issues, validateSharing(p)...)
	issues = append(issues, validateExtract(p.Extract)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

func validateRegions(rs []Region) []Issue {
	var issues []Issue

	if len(rs) == 0 {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "regions",
			Message:  "at least one region is required",
		})
	}

	seen := map[string]int{}
	for i, r := range rs {
		path := fmt.Sprintf("regions[%d]", i)
		prof, err := region.Lookup(r.Name)
		if err != nil {
			issues = append(issues, Issue{Severity: SeverityError, Path: path + ".name", Message: err.Error()})
		} else if j, dup := seen[prof.Key]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("region %q already configured at regions[%d]", prof.Key, j),
			})
		} else {
			seen[prof.Key] = i
		}
		if strings.TrimSpace(r.SourceDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".source_dir",
				Message:  "source_dir must not be empty",
			})
		}
		issues = append(issues, validateStore(path+".staging", r.Staging)...)
	}
	if len(rs) < len(region.Names()) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "regions",
			Message:  fmt.Sprintf("only %d of %d regions configured; final_global_sales will be partial", len(rs), len(region.Names())),
		})
	}
	return issues
}

func validateStore(path string, s Store) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(s.Kind)
	if kind == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  path + ".kind must not be empty",
		})
	}
	if _, ok := knownStores[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown storage kind %q (known: sqlite, postgres, mysql, mssql)", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".dsn",
			Message:  path + " requires a non-empty dsn",
		})
	}
	return issues
}

// validateSharing flags stores that would overwrite each other's tables.
func validateSharing(p Pipeline) []Issue {
	var issues []Issue

	owner := map[Store]string{}
	for i, r := range p.Regions {
		path := fmt.Sprintf("regions[%d].staging", i)
		if r.Staging.DSN == "" {
			continue
		}
		if prev, dup := owner[r.Staging]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".dsn",
				Message:  fmt.Sprintf("staging store is shared with %s; both regions write the same table names", prev),
			})
			continue
		}
		owner[r.Staging] = path
	}
	for _, o := range []struct {
		path string
		s    Store
	}{{"transformation", p.Transformation}, {"presentation", p.Presentation}} {
		if prev, dup := owner[o.s]; dup && o.s.DSN != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     o.path + ".dsn",
				Message:  fmt.Sprintf("%s store is the same as %s", o.path, prev),
			})
		}
	}
	return issues
}

func validateExtract(e ExtractConfig) []Issue {
	var issues []Issue
	if e.SampleRows > 1000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "extract.sample_rows",
			Message:  fmt.Sprintf("sample_rows=%d logs a lot of output; consider <= 20", e.SampleRows),
		})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url (or PUSHGATEWAY_URL)",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr (or DD_AGENT_ADDR)",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (known: none, pushgateway, datadog)", m.Backend),
		})
	}
	return issues
}
