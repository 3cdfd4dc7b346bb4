package sqlkit

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/syssam/sqlkit/dialect/sql"
)

// CacheKey identifies a cached statement.
type CacheKey struct {
	Type reflect.Type
	Op   sql.Op
	// Form names a whole-entity statement form. It is empty for fluent
	// statements cached under a ticket.
	Form string
	// Ticket is the caller-supplied key of a fluent statement.
	Ticket any
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	if k.Form != "" {
		return fmt.Sprintf("%s:%s:%s", k.Type, k.Op, k.Form)
	}
	return fmt.Sprintf("%s:%s:ticket(%v)", k.Type, k.Op, k.Ticket)
}

// Whole-entity statement forms.
const (
	formAll        = "all"
	formByKey      = "by-key"
	formByKeys     = "by-keys"
	formInsert     = "insert"
	formInsertKey  = "insert-key"
	formUpdate     = "update"
	formDelete     = "delete"
	formDeleteKey  = "delete-key"
	formDeleteKeys = "delete-keys"
)

// CacheStats counts statement cache lookups.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// ticketEntry is a fluent statement cached under a ticket. Only the text
// and parameter names are kept; values are collected from each chain.
type ticketEntry struct {
	sql   string
	names []string
}

// statementCache holds whole-entity templates and ticketed statements for
// the lifetime of a Client. Entries are never evicted: the set of entity
// types and tickets is fixed by the program.
type statementCache struct {
	templates sync.Map // CacheKey -> *sql.Template
	tickets   sync.Map // CacheKey -> *ticketEntry
	hits      atomic.Int64
	misses    atomic.Int64
}

func (c *statementCache) template(key CacheKey, build func() (*sql.Template, error)) (*sql.Template, error) {
	if v, ok := c.templates.Load(key); ok {
		c.hits.Add(1)
		return v.(*sql.Template), nil
	}
	c.misses.Add(1)
	t, err := build()
	if err != nil {
		return nil, err
	}
	v, _ := c.templates.LoadOrStore(key, t)
	return v.(*sql.Template), nil
}

// ticketed returns the statement cached under key bound to values, or
// assembles and caches it. A cached entry whose parameter count differs
// from values is not used.
func (c *statementCache) ticketed(key CacheKey, values []any, build func() (sql.Statement, error)) (sql.Statement, error) {
	if v, ok := c.tickets.Load(key); ok {
		if e := v.(*ticketEntry); len(e.names) == len(values) {
			c.hits.Add(1)
			params := make([]sql.Param, len(values))
			for i, v := range values {
				params[i] = sql.Param{Name: e.names[i], Value: v}
			}
			return sql.Statement{SQL: e.sql, Params: params}, nil
		}
	}
	c.misses.Add(1)
	stmt, err := build()
	if err != nil {
		return sql.Statement{}, err
	}
	c.tickets.LoadOrStore(key, &ticketEntry{sql: stmt.SQL, names: stmt.Names()})
	return stmt, nil
}

func (c *statementCache) stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// validTicket reports whether ticket can be used as a cache key.
func validTicket(ticket any) error {
	if ticket == nil {
		return sql.NewArgumentError("ticket", "must not be nil")
	}
	if !reflect.TypeOf(ticket).Comparable() {
		return sql.NewArgumentError("ticket", fmt.Sprintf("%T is not comparable", ticket))
	}
	return nil
}
