package sqlkit

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/expr"
)

// cursor is the shared state of the fluent builders: a position in a
// chain plus the first error recorded while building. Builders copy the
// cursor by value, so a state reused after a further call keeps rendering
// its own branch.
type cursor[T any] struct {
	t       *Table[T]
	chain   *sql.Chain
	tail    int
	err     error
	ticket  any
	columns []string
}

func (q cursor[T]) append(n sql.Node) cursor[T] {
	if q.err == nil {
		q.tail = q.chain.Append(q.tail, n)
	}
	return q
}

func (q cursor[T]) fail(err error) cursor[T] {
	if q.err == nil {
		q.err = err
	}
	return q
}

// cond appends a single comparison. A blank column or nil value records an
// ArgumentError and appends nothing.
func (q cursor[T]) cond(kind sql.NodeKind, sep expr.Sep, col string, op expr.Op, v any) cursor[T] {
	if q.err != nil {
		return q
	}
	if strings.TrimSpace(col) == "" {
		return q.fail(sql.NewArgumentError("column", "must not be blank"))
	}
	if isNil(v) {
		return q.fail(sql.NewArgumentError(col, "value must not be nil"))
	}
	var ts []expr.Triple
	if sep != "" {
		ts = append(ts, expr.Separator(sep))
	}
	return q.append(sql.Node{Kind: kind, Triples: append(ts, expr.Compare(col, op, v))})
}

// condExpr appends the translation of e. Mixed And/Or predicates fold left
// to right; see expr.Translate.
func (q cursor[T]) condExpr(kind sql.NodeKind, sep expr.Sep, e expr.Expr) cursor[T] {
	if q.err != nil {
		return q
	}
	ts, err := expr.Translate(e)
	if err != nil {
		return q.fail(err)
	}
	for _, t := range ts {
		if !t.IsSep() && isNil(t.Value) {
			return q.fail(sql.NewArgumentError(t.Column, "value must not be nil"))
		}
	}
	if sep != "" {
		ts = append([]expr.Triple{expr.Separator(sep)}, ts...)
	}
	return q.append(sql.Node{Kind: kind, Triples: ts})
}

func (q cursor[T]) orderBy(desc bool, cols []string) cursor[T] {
	if q.err != nil {
		return q
	}
	if len(cols) == 0 {
		return q.fail(sql.NewArgumentError("order", "at least one column required"))
	}
	orders := make([]sql.Order, len(cols))
	for i, col := range cols {
		if strings.TrimSpace(col) == "" {
			return q.fail(sql.NewArgumentError("order", "column must not be blank"))
		}
		orders[i] = sql.Order{Column: col, Desc: desc}
	}
	return q.append(sql.Node{Kind: sql.KindOrderBy, Orders: orders})
}

func (q cursor[T]) groupBy(cols []string) cursor[T] {
	if q.err != nil {
		return q
	}
	if len(cols) == 0 {
		return q.fail(sql.NewArgumentError("group", "at least one column required"))
	}
	for _, col := range cols {
		if strings.TrimSpace(col) == "" {
			return q.fail(sql.NewArgumentError("group", "column must not be blank"))
		}
	}
	return q.append(sql.Node{Kind: sql.KindGroupBy, Columns: cols})
}

// paging appends a Limit, Top, Offset or Fetch node after checking that
// the dialect renders it.
func (q cursor[T]) paging(kind sql.NodeKind, n int) cursor[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		return q.fail(sql.NewArgumentError(strings.ToLower(kind.String()), "must not be negative"))
	}
	name := q.t.c.dialect.Name()
	var unsupported bool
	switch kind {
	case sql.KindLimit:
		unsupported = name == dialect.SQLServer
	case sql.KindTop:
		unsupported = name != dialect.SQLServer
	case sql.KindFetch:
		unsupported = name == dialect.MySQL || name == dialect.SQLite
	}
	if unsupported {
		return q.fail(sql.NewArgumentError(strings.ToLower(kind.String()), fmt.Sprintf("not supported by %s", name)))
	}
	return q.append(sql.Node{Kind: kind, N: n})
}

func (q cursor[T]) join(typ sql.JoinType, ref TableRef) cursor[T] {
	if q.err != nil {
		return q
	}
	if ref.typ == nil {
		return q.fail(sql.NewArgumentError("join", "empty table reference"))
	}
	m, err := q.t.c.resolver.Resolve(ref.typ)
	if err != nil {
		return q.fail(err)
	}
	return q.append(sql.Node{Kind: sql.KindJoin, Join: typ, Meta: m, Alias: ref.alias})
}

func (q cursor[T]) withTicket(ticket any) cursor[T] {
	if err := validTicket(ticket); err != nil {
		return q.fail(err)
	}
	q.ticket = ticket
	return q
}

// statement assembles the chain as op. With a ticket the text is taken
// from the client cache and only the values are collected from the chain.
func (q cursor[T]) statement(op sql.Op) (sql.Statement, error) {
	if q.err != nil {
		return sql.Statement{}, q.err
	}
	build := func() (sql.Statement, error) {
		return q.t.c.builder.Assemble(op, q.chain, q.tail, q.columns...)
	}
	if q.ticket == nil {
		return build()
	}
	key := CacheKey{Type: q.t.meta.Type, Op: op, Ticket: q.ticket}
	return q.t.c.cache.ticketed(key, q.chain.Values(q.tail), build)
}

// isNil reports whether v is nil or a nil pointer, map, slice or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// TableRef names a joined entity type and its alias.
type TableRef struct {
	typ   reflect.Type
	alias string
}

// Ref returns a reference to the table of U for use in joins.
//
//	sqlkit.For[Product](c).Select("p").
//		Join(sqlkit.Ref[Category]("c")).On("p.CategoryId", "c.Id")
func Ref[U any](alias string) TableRef {
	return TableRef{typ: typeOf[U](), alias: alias}
}

// Partial is a condition waiting for its operator and value.
//
//	q.WhereColumn("Name").EqualTo("Tea")
type Partial[S any] struct {
	col  string
	then func(col string, op expr.Op, v any) S
}

func partial[S any](col string, then func(string, expr.Op, any) S) *Partial[S] {
	return &Partial[S]{col: col, then: then}
}

// EqualTo completes the condition as col = v.
func (p *Partial[S]) EqualTo(v any) S { return p.then(p.col, expr.OpEQ, v) }

// NotEqualTo completes the condition as col <> v.
func (p *Partial[S]) NotEqualTo(v any) S { return p.then(p.col, expr.OpNEQ, v) }

// GreaterThan completes the condition as col > v.
func (p *Partial[S]) GreaterThan(v any) S { return p.then(p.col, expr.OpGT, v) }

// GreaterThanOrEqualTo completes the condition as col >= v.
func (p *Partial[S]) GreaterThanOrEqualTo(v any) S { return p.then(p.col, expr.OpGTE, v) }

// LessThan completes the condition as col < v.
func (p *Partial[S]) LessThan(v any) S { return p.then(p.col, expr.OpLT, v) }

// LessThanOrEqualTo completes the condition as col <= v.
func (p *Partial[S]) LessThanOrEqualTo(v any) S { return p.then(p.col, expr.OpLTE, v) }

// Like completes the condition as col LIKE pattern.
func (p *Partial[S]) Like(pattern string) S { return p.then(p.col, expr.OpLike, pattern) }

// Contains completes the condition as col LIKE '%s%'.
func (p *Partial[S]) Contains(s string) S { return p.then(p.col, expr.OpLike, "%"+s+"%") }

// reader holds the terminals shared by every SELECT state.
type reader[T any] struct {
	q cursor[T]
}

// Statement returns the assembled SELECT without a terminating semicolon.
func (r reader[T]) Statement() (sql.Statement, error) {
	return r.q.statement(sql.OpSelect)
}

// SQL returns the assembled SELECT text terminated by a semicolon.
func (r reader[T]) SQL() (string, error) {
	stmt, err := r.Statement()
	if err != nil {
		return "", err
	}
	return stmt.Terminated(), nil
}

// All executes the query and returns every row.
func (r reader[T]) All(ctx context.Context) ([]T, error) {
	stmt, err := r.Statement()
	if err != nil {
		return nil, err
	}
	return r.q.t.list(ctx, sql.OpSelect, stmt, -1)
}

// First returns the first row of the query.
func (r reader[T]) First(ctx context.Context) (*T, error) {
	stmt, err := r.Statement()
	if err != nil {
		return nil, err
	}
	out, err := r.q.t.list(ctx, sql.OpSelect, stmt, 1)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundError(r.q.t.meta.Name())
	}
	return &out[0], nil
}

// Only returns the single row of the query. It fails with a NotFoundError
// when there is none and a NotSingularError when there is more than one.
func (r reader[T]) Only(ctx context.Context) (*T, error) {
	stmt, err := r.Statement()
	if err != nil {
		return nil, err
	}
	out, err := r.q.t.list(ctx, sql.OpSelect, stmt, 2)
	if err != nil {
		return nil, err
	}
	switch len(out) {
	case 0:
		return nil, NewNotFoundError(r.q.t.meta.Name())
	case 1:
		return &out[0], nil
	default:
		return nil, NewNotSingularError(r.q.t.meta.Name())
	}
}

// CountStatement returns the query rendered as SELECT COUNT(*).
func (r reader[T]) CountStatement() (sql.Statement, error) {
	return r.q.statement(sql.OpCount)
}

// Count returns the number of rows matched by the query.
func (r reader[T]) Count(ctx context.Context) (int64, error) {
	stmt, err := r.CountStatement()
	if err != nil {
		return 0, err
	}
	rows, err := r.q.t.c.query(ctx, r.q.t.meta, sql.OpCount, stmt)
	if err != nil {
		return 0, err
	}
	var n int64
	if _, err := scanValue(rows, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Select is a SELECT rooted at the table of T.
type Select[T any] struct {
	reader[T]
}

// Join adds an INNER JOIN. It must be followed by On.
func (s *Select[T]) Join(ref TableRef) *JoinClause[T] {
	return &JoinClause[T]{s.q.join(sql.InnerJoin, ref)}
}

// LeftJoin adds a LEFT JOIN. It must be followed by On.
func (s *Select[T]) LeftJoin(ref TableRef) *JoinClause[T] {
	return &JoinClause[T]{s.q.join(sql.LeftJoin, ref)}
}

// RightJoin adds a RIGHT JOIN. It must be followed by On.
func (s *Select[T]) RightJoin(ref TableRef) *JoinClause[T] {
	return &JoinClause[T]{s.q.join(sql.RightJoin, ref)}
}

// Where starts the WHERE clause with col = v.
func (s *Select[T]) Where(col string, v any) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{s.q.cond(sql.KindWhere, "", col, expr.OpEQ, v)}}
}

// WhereExpr starts the WHERE clause with a translated predicate.
func (s *Select[T]) WhereExpr(e expr.Expr) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{s.q.condExpr(sql.KindWhere, "", e)}}
}

// WhereColumn starts the WHERE clause with a condition on col completed by
// the returned Partial.
func (s *Select[T]) WhereColumn(col string) *Partial[*WhereClause[T]] {
	return whereColumn(s.q, "", col)
}

// GroupBy adds a GROUP BY clause.
func (s *Select[T]) GroupBy(cols ...string) *GroupByClause[T] {
	return &GroupByClause[T]{reader[T]{s.q.groupBy(cols)}}
}

// OrderBy adds ascending ORDER BY terms.
func (s *Select[T]) OrderBy(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{s.q.orderBy(false, cols)}}
}

// OrderByDesc adds descending ORDER BY terms.
func (s *Select[T]) OrderByDesc(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{s.q.orderBy(true, cols)}}
}

// Limit adds LIMIT n. SQL Server has no LIMIT; use Top or Offset and Fetch.
func (s *Select[T]) Limit(n int) *LimitClause[T] {
	return &LimitClause[T]{reader[T]{s.q.paging(sql.KindLimit, n)}}
}

// Top adds TOP n to the SELECT head. Only SQL Server supports it.
func (s *Select[T]) Top(n int) *Select[T] {
	return &Select[T]{reader[T]{s.q.paging(sql.KindTop, n)}}
}

// Distinct adds DISTINCT to the SELECT head.
func (s *Select[T]) Distinct() *Select[T] {
	return &Select[T]{reader[T]{s.q.append(sql.Node{Kind: sql.KindDistinct})}}
}

// Columns replaces the selected column list. The columns are written
// verbatim.
func (s *Select[T]) Columns(cols ...string) *Select[T] {
	q := s.q
	q.columns = append([]string(nil), cols...)
	return &Select[T]{reader[T]{q}}
}

// Ticket caches the assembled text under key. Later queries with the same
// key reuse the text and bind their own values, so a key must only be used
// for one query shape.
func (s *Select[T]) Ticket(key any) *Select[T] {
	return &Select[T]{reader[T]{s.q.withTicket(key)}}
}

// JoinClause is a join waiting for its ON condition.
type JoinClause[T any] struct {
	q cursor[T]
}

// On completes the join with left = right. Both sides are column
// references, usually alias-qualified.
func (j *JoinClause[T]) On(left, right string) *Select[T] {
	q := j.q
	if strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
		q = q.fail(sql.NewArgumentError("on", "columns must not be blank"))
	}
	return &Select[T]{reader[T]{q.append(sql.Node{Kind: sql.KindOn, Left: left, Right: right})}}
}

// WhereClause is a SELECT with a WHERE clause.
type WhereClause[T any] struct {
	reader[T]
}

func whereColumn[T any](q cursor[T], sep expr.Sep, col string) *Partial[*WhereClause[T]] {
	return partial(col, func(col string, op expr.Op, v any) *WhereClause[T] {
		return &WhereClause[T]{reader[T]{q.cond(sql.KindWhere, sep, col, op, v)}}
	})
}

// AndWhere adds AND col = v.
func (w *WhereClause[T]) AndWhere(col string, v any) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{w.q.cond(sql.KindWhere, expr.SepAnd, col, expr.OpEQ, v)}}
}

// OrWhere adds OR col = v.
func (w *WhereClause[T]) OrWhere(col string, v any) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{w.q.cond(sql.KindWhere, expr.SepOr, col, expr.OpEQ, v)}}
}

// NotWhere adds AND col <> v.
func (w *WhereClause[T]) NotWhere(col string, v any) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{w.q.cond(sql.KindWhere, expr.SepAnd, col, expr.OpNEQ, v)}}
}

// AndWhereExpr adds AND and a translated predicate.
func (w *WhereClause[T]) AndWhereExpr(e expr.Expr) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{w.q.condExpr(sql.KindWhere, expr.SepAnd, e)}}
}

// OrWhereExpr adds OR and a translated predicate.
func (w *WhereClause[T]) OrWhereExpr(e expr.Expr) *WhereClause[T] {
	return &WhereClause[T]{reader[T]{w.q.condExpr(sql.KindWhere, expr.SepOr, e)}}
}

// AndWhereColumn adds AND and a condition on col.
func (w *WhereClause[T]) AndWhereColumn(col string) *Partial[*WhereClause[T]] {
	return whereColumn(w.q, expr.SepAnd, col)
}

// OrWhereColumn adds OR and a condition on col.
func (w *WhereClause[T]) OrWhereColumn(col string) *Partial[*WhereClause[T]] {
	return whereColumn(w.q, expr.SepOr, col)
}

// GroupBy adds a GROUP BY clause.
func (w *WhereClause[T]) GroupBy(cols ...string) *GroupByClause[T] {
	return &GroupByClause[T]{reader[T]{w.q.groupBy(cols)}}
}

// OrderBy adds ascending ORDER BY terms.
func (w *WhereClause[T]) OrderBy(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{w.q.orderBy(false, cols)}}
}

// OrderByDesc adds descending ORDER BY terms.
func (w *WhereClause[T]) OrderByDesc(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{w.q.orderBy(true, cols)}}
}

// Limit adds LIMIT n.
func (w *WhereClause[T]) Limit(n int) *LimitClause[T] {
	return &LimitClause[T]{reader[T]{w.q.paging(sql.KindLimit, n)}}
}

// Offset skips the first n rows.
func (w *WhereClause[T]) Offset(n int) *OffsetClause[T] {
	return &OffsetClause[T]{reader[T]{w.q.paging(sql.KindOffset, n)}}
}

// GroupByClause is a SELECT with a GROUP BY clause.
type GroupByClause[T any] struct {
	reader[T]
}

// Having starts the HAVING clause with col = v.
func (g *GroupByClause[T]) Having(col string, v any) *HavingClause[T] {
	return &HavingClause[T]{reader[T]{g.q.cond(sql.KindHaving, "", col, expr.OpEQ, v)}}
}

// HavingExpr starts the HAVING clause with a translated predicate.
func (g *GroupByClause[T]) HavingExpr(e expr.Expr) *HavingClause[T] {
	return &HavingClause[T]{reader[T]{g.q.condExpr(sql.KindHaving, "", e)}}
}

// HavingColumn starts the HAVING clause with a condition on col.
func (g *GroupByClause[T]) HavingColumn(col string) *Partial[*HavingClause[T]] {
	q := g.q
	return partial(col, func(col string, op expr.Op, v any) *HavingClause[T] {
		return &HavingClause[T]{reader[T]{q.cond(sql.KindHaving, "", col, op, v)}}
	})
}

// OrderBy adds ascending ORDER BY terms.
func (g *GroupByClause[T]) OrderBy(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{g.q.orderBy(false, cols)}}
}

// OrderByDesc adds descending ORDER BY terms.
func (g *GroupByClause[T]) OrderByDesc(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{g.q.orderBy(true, cols)}}
}

// HavingClause is a SELECT with a HAVING clause.
type HavingClause[T any] struct {
	reader[T]
}

// AndHaving adds AND col = v.
func (h *HavingClause[T]) AndHaving(col string, v any) *HavingClause[T] {
	return &HavingClause[T]{reader[T]{h.q.cond(sql.KindHaving, expr.SepAnd, col, expr.OpEQ, v)}}
}

// OrHaving adds OR col = v.
func (h *HavingClause[T]) OrHaving(col string, v any) *HavingClause[T] {
	return &HavingClause[T]{reader[T]{h.q.cond(sql.KindHaving, expr.SepOr, col, expr.OpEQ, v)}}
}

// AndHavingExpr adds AND and a translated predicate.
func (h *HavingClause[T]) AndHavingExpr(e expr.Expr) *HavingClause[T] {
	return &HavingClause[T]{reader[T]{h.q.condExpr(sql.KindHaving, expr.SepAnd, e)}}
}

// OrHavingExpr adds OR and a translated predicate.
func (h *HavingClause[T]) OrHavingExpr(e expr.Expr) *HavingClause[T] {
	return &HavingClause[T]{reader[T]{h.q.condExpr(sql.KindHaving, expr.SepOr, e)}}
}

// OrderBy adds ascending ORDER BY terms.
func (h *HavingClause[T]) OrderBy(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{h.q.orderBy(false, cols)}}
}

// OrderByDesc adds descending ORDER BY terms.
func (h *HavingClause[T]) OrderByDesc(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{h.q.orderBy(true, cols)}}
}

// OrderByClause is a SELECT with an ORDER BY clause.
type OrderByClause[T any] struct {
	reader[T]
}

// ThenBy adds ascending ORDER BY terms.
func (o *OrderByClause[T]) ThenBy(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{o.q.orderBy(false, cols)}}
}

// ThenByDesc adds descending ORDER BY terms.
func (o *OrderByClause[T]) ThenByDesc(cols ...string) *OrderByClause[T] {
	return &OrderByClause[T]{reader[T]{o.q.orderBy(true, cols)}}
}

// Limit adds LIMIT n.
func (o *OrderByClause[T]) Limit(n int) *LimitClause[T] {
	return &LimitClause[T]{reader[T]{o.q.paging(sql.KindLimit, n)}}
}

// Offset skips the first n rows. SQL Server renders OFFSET n ROWS.
func (o *OrderByClause[T]) Offset(n int) *OffsetClause[T] {
	return &OffsetClause[T]{reader[T]{o.q.paging(sql.KindOffset, n)}}
}

// LimitClause is a SELECT with a LIMIT.
type LimitClause[T any] struct {
	reader[T]
}

// Offset skips the first n rows.
func (l *LimitClause[T]) Offset(n int) *OffsetClause[T] {
	return &OffsetClause[T]{reader[T]{l.q.paging(sql.KindOffset, n)}}
}

// OffsetClause is a SELECT with an OFFSET.
type OffsetClause[T any] struct {
	reader[T]
}

// Fetch limits the result to n rows after the offset. MySQL and SQLite do
// not support it.
func (o *OffsetClause[T]) Fetch(n int) *FetchClause[T] {
	return &FetchClause[T]{reader[T]{o.q.paging(sql.KindFetch, n)}}
}

// FetchClause is a SELECT with OFFSET and FETCH.
type FetchClause[T any] struct {
	reader[T]
}
