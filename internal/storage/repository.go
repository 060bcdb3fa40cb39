// Package storage defines the backend-agnostic store contract used by every
// stage, and a registry that backends populate from their init functions.
//
// Import salesetl/internal/storage/all (or individual backends) for side
// effects to make the backend kinds available to New.
package storage

import (
	"context"
	"errors"

	"salesetl/internal/frame"
)

var (
	// ErrStoreNotFound reports a store that must already exist but does not
	// (e.g. a staging database file that was never extracted).
	ErrStoreNotFound = errors.New("store not found")

	// ErrTableNotFound reports a read of a table the store does not have.
	ErrTableNotFound = errors.New("table not found")
)

// Repository is one open relational store.
type Repository interface {
	// ReplaceTable discards table (if present) and recreates it from f in a
	// single transaction. It returns the number of rows written.
	ReplaceTable(ctx context.Context, table string, f *frame.Frame) (int64, error)

	// ReadTable returns every row of table. A missing table yields an error
	// wrapping ErrTableNotFound.
	ReadTable(ctx context.Context, table string) (*frame.Frame, error)

	// Sample returns at most limit rows of table.
	Sample(ctx context.Context, table string, limit int) (*frame.Frame, error)

	// Close releases the underlying connection(s).
	Close()
}

// Config selects and locates a store.
type Config struct {
	// Kind is a registered backend name: "sqlite", "postgres", "mysql", "mssql".
	Kind string `json:"kind"`

	// DSN is the backend connection string. For sqlite it is a file path or
	// a "file:" URI.
	DSN string `json:"dsn"`

	// MustExist makes file-backed stores fail with ErrStoreNotFound instead
	// of creating an empty store. Used by stages that only read.
	MustExist bool `json:"-"`

	// Verbose enables per-batch load progress logging.
	Verbose bool `json:"-"`
}
