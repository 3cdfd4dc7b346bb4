package sqlkit

import (
	"context"
	"strings"

	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/expr"
)

// writer holds the terminals shared by the UPDATE and DELETE states.
type writer[T any] struct {
	q  cursor[T]
	op sql.Op
}

// Statement returns the assembled statement without a terminating
// semicolon.
func (w writer[T]) Statement() (sql.Statement, error) {
	return w.q.statement(w.op)
}

// SQL returns the assembled statement text terminated by a semicolon.
func (w writer[T]) SQL() (string, error) {
	stmt, err := w.Statement()
	if err != nil {
		return "", err
	}
	return stmt.Terminated(), nil
}

// Exec executes the statement and returns the number of affected rows.
func (w writer[T]) Exec(ctx context.Context) (int64, error) {
	stmt, err := w.Statement()
	if err != nil {
		return 0, err
	}
	return w.q.t.c.run(ctx, w.q.t.meta, w.op, stmt)
}

func (w writer[T]) with(q cursor[T]) writer[T] {
	w.q = q
	return w
}

// Update is an UPDATE waiting for its first Set.
type Update[T any] struct {
	w writer[T]
}

// Set assigns v to col.
func (u *Update[T]) Set(col string, v any) *SetClause[T] {
	return &SetClause[T]{u.w.with(u.w.q.set(col, v))}
}

// Ticket caches the assembled text under key. See Select.Ticket.
func (u *Update[T]) Ticket(key any) *Update[T] {
	return &Update[T]{u.w.with(u.w.q.withTicket(key))}
}

func (q cursor[T]) set(col string, v any) cursor[T] {
	if q.err != nil {
		return q
	}
	if strings.TrimSpace(col) == "" {
		return q.fail(sql.NewArgumentError("column", "must not be blank"))
	}
	if isNil(v) {
		return q.fail(sql.NewArgumentError(col, "value must not be nil"))
	}
	return q.append(sql.Node{Kind: sql.KindSet, Column: col, Value: v})
}

// SetClause is an UPDATE with at least one assignment. Executing it
// without a WHERE clause updates every row.
type SetClause[T any] struct {
	writer[T]
}

// Set assigns v to col.
func (s *SetClause[T]) Set(col string, v any) *SetClause[T] {
	return &SetClause[T]{s.with(s.q.set(col, v))}
}

// Where starts the WHERE clause with col = v. A column also assigned by
// Set gets a suffixed parameter name.
func (s *SetClause[T]) Where(col string, v any) *UpdateWhere[T] {
	return &UpdateWhere[T]{s.with(s.q.cond(sql.KindWhere, "", col, expr.OpEQ, v))}
}

// WhereExpr starts the WHERE clause with a translated predicate.
func (s *SetClause[T]) WhereExpr(e expr.Expr) *UpdateWhere[T] {
	return &UpdateWhere[T]{s.with(s.q.condExpr(sql.KindWhere, "", e))}
}

// WhereColumn starts the WHERE clause with a condition on col.
func (s *SetClause[T]) WhereColumn(col string) *Partial[*UpdateWhere[T]] {
	return updateWhere(s.writer, "", col)
}

func updateWhere[T any](w writer[T], sep expr.Sep, col string) *Partial[*UpdateWhere[T]] {
	return partial(col, func(col string, op expr.Op, v any) *UpdateWhere[T] {
		return &UpdateWhere[T]{w.with(w.q.cond(sql.KindWhere, sep, col, op, v))}
	})
}

// UpdateWhere is an UPDATE with a WHERE clause.
type UpdateWhere[T any] struct {
	writer[T]
}

// AndWhere adds AND col = v.
func (u *UpdateWhere[T]) AndWhere(col string, v any) *UpdateWhere[T] {
	return &UpdateWhere[T]{u.with(u.q.cond(sql.KindWhere, expr.SepAnd, col, expr.OpEQ, v))}
}

// OrWhere adds OR col = v.
func (u *UpdateWhere[T]) OrWhere(col string, v any) *UpdateWhere[T] {
	return &UpdateWhere[T]{u.with(u.q.cond(sql.KindWhere, expr.SepOr, col, expr.OpEQ, v))}
}

// NotWhere adds AND col <> v.
func (u *UpdateWhere[T]) NotWhere(col string, v any) *UpdateWhere[T] {
	return &UpdateWhere[T]{u.with(u.q.cond(sql.KindWhere, expr.SepAnd, col, expr.OpNEQ, v))}
}

// AndWhereExpr adds AND and a translated predicate.
func (u *UpdateWhere[T]) AndWhereExpr(e expr.Expr) *UpdateWhere[T] {
	return &UpdateWhere[T]{u.with(u.q.condExpr(sql.KindWhere, expr.SepAnd, e))}
}

// OrWhereExpr adds OR and a translated predicate.
func (u *UpdateWhere[T]) OrWhereExpr(e expr.Expr) *UpdateWhere[T] {
	return &UpdateWhere[T]{u.with(u.q.condExpr(sql.KindWhere, expr.SepOr, e))}
}

// AndWhereColumn adds AND and a condition on col.
func (u *UpdateWhere[T]) AndWhereColumn(col string) *Partial[*UpdateWhere[T]] {
	return updateWhere(u.writer, expr.SepAnd, col)
}

// OrWhereColumn adds OR and a condition on col.
func (u *UpdateWhere[T]) OrWhereColumn(col string) *Partial[*UpdateWhere[T]] {
	return updateWhere(u.writer, expr.SepOr, col)
}

// Delete is a DELETE on the table of T. Executing it without a WHERE
// clause deletes every row.
type Delete[T any] struct {
	writer[T]
}

// Ticket caches the assembled text under key. See Select.Ticket.
func (d *Delete[T]) Ticket(key any) *Delete[T] {
	return &Delete[T]{d.with(d.q.withTicket(key))}
}

// Where starts the WHERE clause with col = v.
func (d *Delete[T]) Where(col string, v any) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.cond(sql.KindWhere, "", col, expr.OpEQ, v))}
}

// WhereExpr starts the WHERE clause with a translated predicate.
func (d *Delete[T]) WhereExpr(e expr.Expr) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.condExpr(sql.KindWhere, "", e))}
}

// WhereColumn starts the WHERE clause with a condition on col.
func (d *Delete[T]) WhereColumn(col string) *Partial[*DeleteWhere[T]] {
	return deleteWhere(d.writer, "", col)
}

func deleteWhere[T any](w writer[T], sep expr.Sep, col string) *Partial[*DeleteWhere[T]] {
	return partial(col, func(col string, op expr.Op, v any) *DeleteWhere[T] {
		return &DeleteWhere[T]{w.with(w.q.cond(sql.KindWhere, sep, col, op, v))}
	})
}

// DeleteWhere is a DELETE with a WHERE clause.
type DeleteWhere[T any] struct {
	writer[T]
}

// AndWhere adds AND col = v.
func (d *DeleteWhere[T]) AndWhere(col string, v any) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.cond(sql.KindWhere, expr.SepAnd, col, expr.OpEQ, v))}
}

// OrWhere adds OR col = v.
func (d *DeleteWhere[T]) OrWhere(col string, v any) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.cond(sql.KindWhere, expr.SepOr, col, expr.OpEQ, v))}
}

// NotWhere adds AND col <> v.
func (d *DeleteWhere[T]) NotWhere(col string, v any) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.cond(sql.KindWhere, expr.SepAnd, col, expr.OpNEQ, v))}
}

// AndWhereExpr adds AND and a translated predicate.
func (d *DeleteWhere[T]) AndWhereExpr(e expr.Expr) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.condExpr(sql.KindWhere, expr.SepAnd, e))}
}

// OrWhereExpr adds OR and a translated predicate.
func (d *DeleteWhere[T]) OrWhereExpr(e expr.Expr) *DeleteWhere[T] {
	return &DeleteWhere[T]{d.with(d.q.condExpr(sql.KindWhere, expr.SepOr, e))}
}

// AndWhereColumn adds AND and a condition on col.
func (d *DeleteWhere[T]) AndWhereColumn(col string) *Partial[*DeleteWhere[T]] {
	return deleteWhere(d.writer, expr.SepAnd, col)
}

// OrWhereColumn adds OR and a condition on col.
func (d *DeleteWhere[T]) OrWhereColumn(col string) *Partial[*DeleteWhere[T]] {
	return deleteWhere(d.writer, expr.SepOr, col)
}
