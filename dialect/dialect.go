package dialect

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"
)

// Dialect names.
const (
	SQLServer = "sqlserver"
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite"
)

// Names lists the supported dialect names in a stable order.
var Names = []string{SQLServer, Postgres, MySQL, SQLite}

// Dialect renders the engine-specific parts of a statement: identifier
// quoting, generated-key retrieval and the separator used when an
// alias-qualified column becomes a parameter name.
//
// The zero value is not usable; obtain a Dialect with Get or MustGet.
type Dialect struct {
	name string
}

// Get returns the Dialect registered under name.
func Get(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SQLServer, "mssql":
		return Dialect{name: SQLServer}, nil
	case Postgres, "postgresql", "pgx":
		return Dialect{name: Postgres}, nil
	case MySQL, "mariadb":
		return Dialect{name: MySQL}, nil
	case SQLite, "sqlite3":
		return Dialect{name: SQLite}, nil
	default:
		return Dialect{}, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// MustGet is like Get but panics if the name is unknown.
func MustGet(name string) Dialect {
	d, err := Get(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the dialect name.
func (d Dialect) Name() string { return d.name }

// String implements fmt.Stringer.
func (d Dialect) String() string { return d.name }

// Quote wraps ident in the dialect's identifier quotes, doubling any
// embedded quote character.
func (d Dialect) Quote(ident string) string {
	switch d.name {
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case Postgres:
		return pq.QuoteIdentifier(ident)
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// NeedsQuote reports whether ident collides with a reserved word or
// contains whitespace.
func (d Dialect) NeedsQuote(ident string) bool {
	if ident == "" || IsQuoted(ident) {
		return false
	}
	if strings.IndexFunc(ident, unicode.IsSpace) >= 0 {
		return true
	}
	return IsReserved(ident)
}

// QuoteIfNeeded quotes ident only when NeedsQuote reports true.
func (d Dialect) QuoteIfNeeded(ident string) string {
	if d.NeedsQuote(ident) {
		return d.Quote(ident)
	}
	return ident
}

// KeyTrailer returns the clause that reads back a generated key after an
// INSERT. When inline is true the clause belongs inside the INSERT
// statement (before the terminating semicolon), otherwise it is a separate
// statement following it.
func (d Dialect) KeyTrailer(key string) (clause string, inline bool) {
	key = d.QuoteIfNeeded(key)
	switch d.name {
	case SQLServer:
		return "SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS " + key, false
	case Postgres:
		return "RETURNING " + key, true
	case MySQL:
		return "SELECT LAST_INSERT_ID() AS " + key, false
	default:
		return "SELECT last_insert_rowid() AS " + key, false
	}
}

// AliasSeparator returns the text that replaces the dot of an
// alias-qualified column when it is used as a parameter name.
func (d Dialect) AliasSeparator() string {
	if d.name == MySQL {
		return "."
	}
	return "__"
}

// IsQuoted reports whether ident is already wrapped in identifier quotes.
func IsQuoted(ident string) bool {
	if len(ident) < 2 {
		return false
	}
	first, last := ident[0], ident[len(ident)-1]
	return (first == '"' && last == '"') || (first == '`' && last == '`') || (first == '[' && last == ']')
}

// Unquote strips identifier quotes added by any dialect.
func Unquote(ident string) string {
	if !IsQuoted(ident) {
		return ident
	}
	q := ident[:1]
	inner := ident[1 : len(ident)-1]
	switch q {
	case "[":
		return inner
	default:
		return strings.ReplaceAll(inner, q+q, q)
	}
}

// Arg is a named statement argument.
type Arg struct {
	Name  string
	Value any
}

// Rows is the subset of *sql.Rows used for scanning query results.
type Rows interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// Executor runs assembled statements. Implementations bind args by name
// as they appear in the query text.
type Executor interface {
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args []Arg) (int64, error)
	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args []Arg) (Rows, error)
}
