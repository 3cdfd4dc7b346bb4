package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/sqlkit/dialect"
)

// validIdentifierRe validates session variable names.
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue doubles single quotes and escapes backslashes.
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// Driver executes assembled statements on a database/sql handle. It
// implements dialect.Executor.
type Driver struct {
	Conn
}

// Open wraps sql.Open. driverName is the database/sql driver to use, which
// may differ from the dialect name (e.g. "pgx" or "sqlite").
func Open(d dialect.Dialect, driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(d, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(d dialect.Dialect, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{db, d}}
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect returns the driver dialect.
func (d *Driver) Dialect() dialect.Dialect { return d.dialect }

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (*Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx is a transaction that implements dialect.Executor.
type Tx struct {
	Conn
	driver.Tx
}

type ctxVarsKey struct{}

// sessionVars holds session variables to set before every statement.
type sessionVars struct {
	vars []struct{ k, v string }
}

// WithVar returns a new context that holds the session variable to be set
// before every statement. Contexts derived from the same parent do not
// share variables.
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars[:len(sv.vars):len(sv.vars)], struct {
		k, v string
	}{
		k: name,
		v: value,
	})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// VarFromContext returns the session variable value from the context.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for i := len(sv.vars) - 1; i >= 0; i-- {
		if sv.vars[i].k == name {
			return sv.vars[i].v, true
		}
	}
	return "", false
}

// WithIntVar calls WithVar with the string representation of the value.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.Executor given an ExecQuerier. Named parameters
// are rebound to the placeholder style of the dialect before execution.
type Conn struct {
	ExecQuerier
	dialect dialect.Dialect
}

// Exec executes a statement and returns the number of affected rows.
func (c Conn) Exec(ctx context.Context, query string, args []dialect.Arg) (n int64, rerr error) {
	query, argv, err := Rebind(c.dialect, query, args)
	if err != nil {
		return 0, err
	}
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	res, err := ex.ExecContext(ctx, query, argv...)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	return n, nil
}

// Query executes a query returning rows. The caller must close them.
func (c Conn) Query(ctx context.Context, query string, args []dialect.Arg) (dialect.Rows, error) {
	query, argv, err := Rebind(c.dialect, query, args)
	if err != nil {
		return nil, err
	}
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: set session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	if cf != nil {
		return rowsWithCloser{rows, cf}, nil
	}
	return rows, nil
}

// maySetVars sets the session variables before executing a statement.
func (c Conn) maySetVars(ctx context.Context) (ExecQuerier, func() error, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(sv.vars) == 0 {
		return c.ExecQuerier, nil, nil
	}
	var (
		ex    ExecQuerier
		cf    func() error
		reset []string
		seen  = make(map[string]struct{}, len(sv.vars))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	for _, s := range sv.vars {
		if !isValidIdentifier(s.k) {
			if cf != nil {
				_ = cf()
			}
			return nil, nil, fmt.Errorf("invalid session variable name: %q", s.k)
		}
		if _, ok := seen[s.k]; !ok {
			if q := resetVar(c.dialect, s.k); q != "" {
				reset = append(reset, q)
			}
			seen[s.k] = struct{}{}
		}
		if _, err := ex.ExecContext(ctx, setVar(c.dialect, s.k, s.v)); err != nil {
			if cf != nil {
				err = errors.Join(err, cf())
			}
			return nil, nil, err
		}
	}
	// Pooled connections are reset before they are returned. The original
	// context may already be canceled at that point.
	if cls := cf; cf != nil && len(reset) > 0 {
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(cleanupCtx, q); err != nil {
					return errors.Join(err, cls())
				}
			}
			return cls()
		}
	}
	return ex, cf, nil
}

// setVar returns the statement that sets a session variable. SQL Server
// has no SET for custom names and stores them in the session context.
func setVar(d dialect.Dialect, k, v string) string {
	v = escapeStringValue(v)
	switch d.Name() {
	case dialect.SQLite:
		return fmt.Sprintf("PRAGMA %s = '%s'", k, v)
	case dialect.SQLServer:
		return fmt.Sprintf("EXEC sp_set_session_context @key = N'%s', @value = N'%s'", k, v)
	default:
		return fmt.Sprintf("SET %s = '%s'", k, v)
	}
}

// resetVar returns the statement that clears a session variable before the
// connection goes back to the pool, or "" when the dialect needs none.
func resetVar(d dialect.Dialect, k string) string {
	switch d.Name() {
	case dialect.Postgres:
		return "RESET " + k
	case dialect.MySQL:
		return fmt.Sprintf("SET %s = NULL", k)
	case dialect.SQLServer:
		return fmt.Sprintf("EXEC sp_set_session_context @key = N'%s', @value = NULL", k)
	default:
		return ""
	}
}

var (
	_ dialect.Executor = (*Driver)(nil)
	_ dialect.Executor = (*Tx)(nil)
)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullBool is an alias to sql.NullBool.
	NullBool = sql.NullBool
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullFloat64 is an alias to sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime represents a time.Time that may be null.
	NullTime = sql.NullTime
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// rowsWithCloser releases a dedicated connection once the rows are closed.
type rowsWithCloser struct {
	*sql.Rows
	closer func() error
}

// Close closes the rows and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.Rows.Close()
	return errors.Join(err, r.closer())
}
