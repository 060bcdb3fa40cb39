// Package app is the shared bootstrap of the extract, clean and consolidate
// binaries: flags, config loading and validation, the metrics backend and
// signal handling.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/metrics"
	"salesetl/internal/metrics/datadog"
	"salesetl/internal/metrics/prompush"
	"salesetl/internal/region"
)

// DefaultConfigPath is read when -config is not given. If it does not exist
// the built-in defaults are used.
const DefaultConfigPath = "configs/salesetl.json"

// Stage runs one stage over the resolved targets.
type Stage func(ctx context.Context, p config.Pipeline, targets []region.Target) error

// Main runs stage as the process and exits with its status.
func Main(name string, stage Stage) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, name, os.Args[1:], os.Getenv, os.Stderr, stage)
	stop()
	os.Exit(code)
}

// Run parses args, prepares the configuration and runs stage. It returns the
// process exit status: 0 on success, 1 on any failure.
func Run(ctx context.Context, name string, args []string, getenv func(string) string, stderr io.Writer, stage Stage) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", DefaultConfigPath, "pipeline config JSON path")
	verbose := fs.Bool("v", false, "enable verbose logs")
	validate := fs.Bool("validate", false, "validate the configuration and exit")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	p, err := loadConfig(*cfgPath, explicit)
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR] %s: %v\n", name, err)
		return 1
	}
	p = config.ApplyEnv(p, getenv)
	if *verbose {
		p.Runtime.Verbose = true
	}

	issues := config.Validate(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Errors(issues); err != nil {
		fmt.Fprintf(stderr, "[ERROR] %s: invalid configuration %s\n", name, *cfgPath)
		return 1
	}
	if *validate {
		log.Printf("%s: configuration is valid: %s", name, *cfgPath)
		return 0
	}

	targets, err := p.Targets()
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR] %s: %v\n", name, err)
		return 1
	}

	flush := setupMetrics(p)
	defer flush()

	start := time.Now()
	if p.Runtime.Verbose {
		log.Printf("%s: job=%s regions=%d config=%s", name, p.Job, len(targets), *cfgPath)
	}
	if err := stage(ctx, p, targets); err != nil {
		fmt.Fprintf(stderr, "[ERROR] %s: %v\n", name, err)
		return 1
	}
	log.Printf("%s: completed in %s", name, time.Since(start).Truncate(time.Millisecond))
	return 0
}

func loadConfig(path string, explicit bool) (config.Pipeline, error) {
	p, err := config.Load(path)
	if err == nil {
		return p, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Pipeline{}, err
}

// setupMetrics installs the configured backend and returns the function
// that flushes it. A backend that cannot be created leaves metrics disabled.
func setupMetrics(p config.Pipeline) func() {
	b, err := newMetricsBackend(p)
	if err != nil {
		log.Printf("metrics: %v; metrics disabled", err)
		return func() {}
	}
	if b == nil {
		if p.Runtime.Verbose {
			log.Printf("metrics: disabled (backend=%q)", p.Metrics.Backend)
		}
		return func() {}
	}
	log.Printf("metrics: backend=%s job_name=%s", p.Metrics.Backend, p.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// newMetricsBackend returns nil for the "none" backend.
func newMetricsBackend(p config.Pipeline) (metrics.Backend, error) {
	switch p.Metrics.Backend {
	case "", "none":
		return nil, nil
	case "pushgateway":
		return prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
	case "datadog":
		return datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  p.Job + ".",
			GlobalTags: []string{"service:" + p.Job},
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", p.Metrics.Backend)
	}
}
