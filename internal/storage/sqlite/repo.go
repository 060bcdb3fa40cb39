// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver. The staging and
// transformation stores are SQLite files by default.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"salesetl/internal/ddl"
	"salesetl/internal/storage"
	"salesetl/internal/storage/sqldb"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Store
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// With cfg.MustExist a missing file fails with storage.ErrStoreNotFound;
// otherwise the parent directory is created as needed.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	if p := cfg.Path(); p != "" {
		if cfg.MustExist {
			if _, err := os.Stat(p); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil, nil, fmt.Errorf("sqlite: %s: %w", p, storage.ErrStoreNotFound)
				}
				return nil, nil, fmt.Errorf("sqlite: stat %s: %w", p, err)
			}
		} else if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("sqlite: create dir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := sqldb.New(db, Dialect{})
	s.Verbose = cfg.Verbose
	closeFn := func() { db.Close() }
	return &Repository{Store: s, cfg: cfg}, closeFn, nil
}

// Dialect is the SQLite flavor of sqldb.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

// QuoteIdent wraps id in double quotes, doubling embedded quotes.
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// MapType maps a logical kind onto a SQLite type affinity.
func (Dialect) MapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "INTEGER"
	case ddl.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (Dialect) Placeholder(int) string { return "?" }

func (d Dialect) SelectSQL(table string, limit int) string {
	q := "SELECT * FROM " + ddl.QuoteFQN(d, table)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

func (Dialect) IsMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
