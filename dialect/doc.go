// Package dialect provides the SQL dialect abstraction for sqlkit.
//
// A Dialect renders the engine-specific fragments of a statement. The rest
// of the generated SQL is shared across engines.
//
// # Supported Dialects
//
//	dialect.SQLServer = "sqlserver"
//	dialect.Postgres  = "postgres"
//	dialect.MySQL     = "mysql"
//	dialect.SQLite    = "sqlite"
//
// # Identifier Quoting
//
// Identifiers that are reserved words or contain whitespace are quoted:
//
//	dialect.MustGet(dialect.Postgres).QuoteIfNeeded("Order")     // "Order"
//	dialect.MustGet(dialect.MySQL).QuoteIfNeeded("First Name")   // `First Name`
//	dialect.MustGet(dialect.SQLite).QuoteIfNeeded("Name")        // Name
//
// # Generated Keys
//
// KeyTrailer returns the clause reading back an identity value:
//
//	SQL Server: SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS Id
//	Postgres:   RETURNING Id
//	MySQL:      SELECT LAST_INSERT_ID() AS Id
//	SQLite:     SELECT last_insert_rowid() AS Id
//
// # Executor Interface
//
// Statement execution is delegated to an Executor:
//
//	type Executor interface {
//	    Exec(ctx context.Context, query string, args []Arg) (int64, error)
//	    Query(ctx context.Context, query string, args []Arg) (Rows, error)
//	}
//
// The dialect/sql package provides an Executor backed by database/sql.
package dialect
