// Package postgres implements a Postgres repository using pgx v5. Tables are
// replaced inside one transaction and loaded with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesetl/internal/ddl"
	"salesetl/internal/frame"
	"salesetl/internal/storage"
	"salesetl/internal/storage/sqldb"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string // connection string for pgxpool
	Verbose bool   // per-batch COPY progress
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// ReplaceTable drops and recreates table from f, then COPYs the rows in
// batches of storage.DefaultBatchSize. All steps share one transaction.
func (r *Repository) ReplaceTable(ctx context.Context, table string, f *frame.Frame) (int64, error) {
	def := ddl.FromFrame(table, f)
	create, err := ddl.BuildCreateTableSQL(Dialect{}, def)
	if err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, ddl.BuildDropTableSQL(Dialect{}, table)); err != nil {
		return 0, fmt.Errorf("postgres: drop %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("postgres: create %s: %w", table, err)
	}

	ident := identifier(table)
	n, err := storage.LoadBatches(ctx, table, ddl.Conform(def, f.Rows), storage.DefaultBatchSize, r.cfg.Verbose,
		func(ctx context.Context, batch [][]any) (int64, error) {
			n, err := tx.CopyFrom(ctx, ident, f.Columns, pgx.CopyFromRows(batch))
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Detail != "" {
					return n, fmt.Errorf("postgres: copy into %s: %s (%s)", table, pgErr.Detail, pgErr.SQLState())
				}
				return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
			}
			return n, nil
		})
	if err != nil {
		return n, err
	}

	if err := tx.Commit(ctx); err != nil {
		return n, fmt.Errorf("postgres: commit: %w", err)
	}
	return n, nil
}

// ReadTable returns every row of table.
func (r *Repository) ReadTable(ctx context.Context, table string) (*frame.Frame, error) {
	return r.query(ctx, table, 0)
}

// Sample returns at most limit rows of table.
func (r *Repository) Sample(ctx context.Context, table string, limit int) (*frame.Frame, error) {
	if limit <= 0 {
		return frame.New(nil, nil), nil
	}
	return r.query(ctx, table, limit)
}

func (r *Repository) query(ctx context.Context, table string, limit int) (*frame.Frame, error) {
	rows, err := r.pool.Query(ctx, Dialect{}.SelectSQL(table, limit))
	if err != nil {
		return nil, readErr(table, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}

	f := frame.New(cols, nil)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", table, err)
		}
		for i, v := range vals {
			vals[i] = cell(v)
		}
		f.Rows = append(f.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(table, err)
	}
	return f, nil
}

// Close is provided by wrappedRepo.
func (r *Repository) Close() {}

func readErr(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("postgres: read %s: %w", table, storage.ErrTableNotFound)
	}
	return fmt.Errorf("postgres: read %s: %w", table, err)
}

func cell(v any) any {
	if n, ok := v.(pgtype.Numeric); ok {
		if !n.Valid {
			return nil
		}
		f, err := n.Float64Value()
		if err != nil {
			return nil
		}
		return f.Float64
	}
	return sqldb.Normalize(v, "")
}

func identifier(table string) pgx.Identifier {
	var id pgx.Identifier
	for _, p := range strings.Split(table, ".") {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}

// Dialect renders Postgres DDL.
type Dialect struct{}

// QuoteIdent quotes an identifier using double quotes and escapes embedded quotes.
func (Dialect) QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func (Dialect) MapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "BIGINT"
	case ddl.KindFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (d Dialect) SelectSQL(table string, limit int) string {
	q := "SELECT * FROM " + ddl.QuoteFQN(d, table)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}
