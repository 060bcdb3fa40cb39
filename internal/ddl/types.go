package ddl

// Logical column kinds inferred from frames. Backends map them to SQL types.
const (
	KindInt   = "int"
	KindFloat = "float"
	KindText  = "text"
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical kind (KindInt, KindFloat, KindText)
//   - SQLType: backend type; filled by Dialect.MapType when empty
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Kind     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name and an ordered list of columns. Dotted names
// ("schema.table") are quoted segment by segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect supplies the backend-specific parts of DDL rendering.
type Dialect interface {
	QuoteIdent(id string) string
	MapType(kind string) string
}
