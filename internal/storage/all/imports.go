// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories with the storage package:
//
//   - "sqlite"   (salesetl/internal/storage/sqlite)
//   - "postgres" (salesetl/internal/storage/postgres)
//   - "mysql"    (salesetl/internal/storage/mysql)
//   - "mssql"    (salesetl/internal/storage/mssql)
//
// Typical usage (in a stage binary's main package):
//
//	import _ "salesetl/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "staging/japan_staging_area.db"})
package all

import (
	_ "salesetl/internal/storage/mssql"
	_ "salesetl/internal/storage/mysql"
	_ "salesetl/internal/storage/postgres"
	_ "salesetl/internal/storage/sqlite"
)
