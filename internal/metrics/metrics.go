// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ETL stages.
//
// It exposes a narrow interface (Backend) focused on counters and timing
// data, and a global, pluggable backend that defaults to a no-op
// implementation, so metrics are always safe to call even when no real
// backend is configured. Concrete systems (Pushgateway, DogStatsD) live in
// subpackages.
package metrics

import "time"

// Metric names shared by all backends.
const (
	StepTotal           = "salesetl_step_total"
	StepDurationSeconds = "salesetl_step_duration_seconds"
	RowsTotal           = "salesetl_rows_total"
)

// Row kinds reported through RecordRows.
const (
	RowsExtracted  = "extracted"
	RowsSkipped    = "skipped"
	RowsCleaned    = "cleaned"
	RowsDuplicates = "duplicates"
	RowsOrphans    = "orphans"
	RowsLoaded     = "loaded"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of step for region and records its
// latency. The status label is "success" or "failure".
func RecordStep(job, step, region string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"region": region,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind (RowsExtracted, RowsLoaded,
// ...) for region. Non-positive deltas are ignored.
func RecordRows(job, region, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":    job,
		"region": region,
		"kind":   kind,
	})
}

// Timer returns a func that records the step when called with its outcome:
//
//	done := metrics.Timer(job, "clean", "japan")
//	err := run()
//	done(err)
func Timer(job, step, region string) func(error) {
	start := time.Now()
	return func(err error) { RecordStep(job, step, region, err, time.Since(start)) }
}
