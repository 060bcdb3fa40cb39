// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and github.com/go-sql-driver/mysql.
//
// MySQL commits implicitly around DDL, so ReplaceTable's DROP/CREATE are not
// rolled back together with the inserts.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"salesetl/internal/ddl"
	"salesetl/internal/storage/sqldb"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN     string // e.g. "etl:secret@tcp(localhost:3306)/presentation"
	Verbose bool
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Store
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	s := sqldb.New(db, Dialect{})
	s.Verbose = cfg.Verbose
	close := func() { _ = db.Close() }
	return &Repository{Store: s, cfg: cfg}, close, nil
}

// Dialect is the MySQL flavor of sqldb.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func (Dialect) QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func (Dialect) MapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "BIGINT"
	case ddl.KindFloat:
		return "DOUBLE"
	default:
		return "LONGTEXT"
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

// IsMissingTable matches ER_NO_SUCH_TABLE.
func (Dialect) IsMissingTable(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1146
}
