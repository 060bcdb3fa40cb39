// Package sqldb implements storage.Repository on top of database/sql. The
// sqlite, mysql and mssql backends share it and differ only by Dialect.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"salesetl/internal/ddl"
	"salesetl/internal/frame"
	"salesetl/internal/storage"
)

// Dialect captures the SQL differences between database/sql backends.
type Dialect interface {
	ddl.Dialect

	// Name prefixes error messages ("sqlite", "mysql", ...).
	Name() string

	// Placeholder returns the bind marker for the i-th (1-based) argument.
	Placeholder(i int) string

	// SelectSQL returns a query reading table, limited to limit rows when
	// limit > 0.
	SelectSQL(table string, limit int) string

	// IsMissingTable reports whether err means the table does not exist.
	IsMissingTable(err error) bool
}

// BulkCopier is implemented by dialects whose driver offers a bulk-load
// statement. The statement is prepared inside the load transaction, executed
// once per row and flushed with an argument-less Exec.
type BulkCopier interface {
	CopyInSQL(table string, columns []string) string
}

// Store is a storage.Repository over a *sql.DB.
type Store struct {
	db *sql.DB
	d  Dialect

	// BatchSize is the number of rows per flush; storage.DefaultBatchSize
	// when zero.
	BatchSize int

	// Verbose logs a progress line per flushed batch.
	Verbose bool
}

// New wraps db. The caller keeps ownership of db.
func New(db *sql.DB, d Dialect) *Store { return &Store{db: db, d: d} }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// ReplaceTable drops table, recreates it from the kinds inferred from f and
// inserts every row, all inside one transaction.
func (s *Store) ReplaceTable(ctx context.Context, table string, f *frame.Frame) (int64, error) {
	name := s.d.Name()
	def := ddl.FromFrame(table, f)
	create, err := ddl.BuildCreateTableSQL(s.d, def)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddl.BuildDropTableSQL(s.d, table)); err != nil {
		return 0, fmt.Errorf("%s: drop %s: %w", name, table, err)
	}
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return 0, fmt.Errorf("%s: create %s: %w", name, table, err)
	}

	rows := ddl.Conform(def, f.Rows)
	var n int64
	if bc, ok := s.d.(BulkCopier); ok {
		n, err = s.bulkCopy(ctx, tx, bc, table, f.Columns, rows)
	} else {
		n, err = s.insert(ctx, tx, table, f.Columns, rows)
	}
	if err != nil {
		return n, err
	}

	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("%s: commit: %w", name, err)
	}
	return n, nil
}

func (s *Store) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return storage.DefaultBatchSize
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, table string, cols []string, rows [][]any) (int64, error) {
	name := s.d.Name()
	stmt, err := tx.PrepareContext(ctx, s.insertSQL(table, cols))
	if err != nil {
		return 0, fmt.Errorf("%s: prepare insert: %w", name, err)
	}
	defer stmt.Close()

	return storage.LoadBatches(ctx, table, rows, s.batchSize(), s.Verbose, func(ctx context.Context, batch [][]any) (int64, error) {
		var inserted int64
		for _, row := range batch {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return inserted, fmt.Errorf("%s: insert into %s: %w", name, table, err)
			}
			inserted++
		}
		return inserted, nil
	})
}

func (s *Store) bulkCopy(ctx context.Context, tx *sql.Tx, bc BulkCopier, table string, cols []string, rows [][]any) (int64, error) {
	name := s.d.Name()
	return storage.LoadBatches(ctx, table, rows, s.batchSize(), s.Verbose, func(ctx context.Context, batch [][]any) (int64, error) {
		stmt, err := tx.PrepareContext(ctx, bc.CopyInSQL(table, cols))
		if err != nil {
			return 0, fmt.Errorf("%s: prepare bulk copy: %w", name, err)
		}
		defer stmt.Close()
		for _, row := range batch {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return 0, fmt.Errorf("%s: bulk copy row: %w", name, err)
			}
		}
		res, err := stmt.ExecContext(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: bulk copy flush: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return int64(len(batch)), nil
		}
		return n, nil
	})
}

func (s *Store) insertSQL(table string, cols []string) string {
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = s.d.QuoteIdent(c)
		marks[i] = s.d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(s.d, table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

// ReadTable returns every row of table.
func (s *Store) ReadTable(ctx context.Context, table string) (*frame.Frame, error) {
	return s.query(ctx, table, 0)
}

// Sample returns at most limit rows of table.
func (s *Store) Sample(ctx context.Context, table string, limit int) (*frame.Frame, error) {
	if limit <= 0 {
		return frame.New(nil, nil), nil
	}
	return s.query(ctx, table, limit)
}

func (s *Store) query(ctx context.Context, table string, limit int) (*frame.Frame, error) {
	name := s.d.Name()
	rows, err := s.db.QueryContext(ctx, s.d.SelectSQL(table, limit))
	if err != nil {
		if s.d.IsMissingTable(err) {
			return nil, fmt.Errorf("%s: read %s: %w", name, table, storage.ErrTableNotFound)
		}
		return nil, fmt.Errorf("%s: read %s: %w", name, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: columns: %w", name, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%s: column types: %w", name, err)
	}
	dbTypes := make([]string, len(types))
	for i, ct := range types {
		dbTypes[i] = ct.DatabaseTypeName()
	}

	f := frame.New(cols, nil)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s: scan %s: %w", name, table, err)
		}
		for i := range vals {
			vals[i] = Normalize(vals[i], dbTypes[i])
		}
		f.Rows = append(f.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", name, table, err)
	}
	return f, nil
}

// Close is a no-op; backends close the *sql.DB they opened.
func (s *Store) Close() {}

var _ storage.Repository = (*Store)(nil)
