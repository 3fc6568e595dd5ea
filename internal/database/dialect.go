package database

// Dialect abstracts the SQL differences between SQLite and PostgreSQL
type Dialect interface {
	// DriverName returns the driver name for sql.Open()
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-indexed position
	Placeholder(position int) string

	// SupportsLastInsertID returns true if Result.LastInsertId() works.
	// PostgreSQL uses a RETURNING clause instead.
	SupportsLastInsertID() bool

	// ReturningClause returns the RETURNING clause for INSERT statements
	ReturningClause(column string) string

	// InitStatements run once after connecting, before migrations
	InitStatements() []string

	// IsDuplicateKeyError returns true if err is a unique constraint violation
	IsDuplicateKeyError(err error) bool

	// SerialPrimaryKey returns the column definition of an auto-incrementing id
	SerialPrimaryKey() string

	// CaseInsensitiveText returns the column type for text compared without case
	CaseInsensitiveText() string
}

// DialectType identifies the database dialect
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect creates a Dialect for the given type, defaulting to SQLite
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}
