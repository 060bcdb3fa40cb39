package sqlite

import (
	"net/url"
	"strings"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "staging/japan_staging_area.db"
	//   "file:staging/japan_staging_area.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// MustExist refuses to create a missing database file.
	MustExist bool

	// Verbose logs per-batch insert progress.
	Verbose bool
}

// Path returns the filesystem path named by the DSN, or "" for in-memory
// databases.
func (c Config) Path() string {
	dsn := strings.TrimSpace(c.DSN)
	if strings.HasPrefix(dsn, "file:") {
		dsn = strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(dsn, '?'); i >= 0 {
			if q, err := url.ParseQuery(dsn[i+1:]); err == nil && q.Get("mode") == "memory" {
				return ""
			}
			dsn = dsn[:i]
		}
	}
	if dsn == "" || dsn == ":memory:" {
		return ""
	}
	return dsn
}
