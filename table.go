package sqlkit

import (
	"context"

	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/schema"
)

// Table is the entry point for statements on entity type T.
//
//	products := sqlkit.For[Product](client)
//	p, err := products.Get(ctx, 1)
//	n, err := products.Update().Set("Name", "Tea").Where("Id", 1).Exec(ctx)
type Table[T any] struct {
	c    *Client
	meta *schema.Metadata
	err  error
}

// For returns the table of T. A mapping error is reported by every
// operation of the returned table.
func For[T any](c *Client) *Table[T] {
	m, err := c.resolver.Resolve(typeOf[T]())
	return &Table[T]{c: c, meta: m, err: err}
}

// Metadata returns the resolved mapping of T.
func (t *Table[T]) Metadata() (*schema.Metadata, error) {
	return t.meta, t.err
}

// Select starts a fluent SELECT. The optional alias names the table in
// FROM and qualifies the selected columns when the query joins.
func (t *Table[T]) Select(alias ...string) *Select[T] {
	var a string
	if len(alias) > 0 {
		a = alias[0]
	}
	return &Select[T]{reader[T]{t.root(sql.Node{Kind: sql.KindFrom, Meta: t.meta, Alias: a})}}
}

// Update starts a fluent UPDATE.
func (t *Table[T]) Update() *Update[T] {
	return &Update[T]{writer[T]{t.root(sql.Node{Kind: sql.KindFrom, Meta: t.meta}), sql.OpUpdate}}
}

// Delete starts a fluent DELETE.
func (t *Table[T]) Delete() *Delete[T] {
	return &Delete[T]{writer[T]{t.root(sql.Node{Kind: sql.KindFrom, Meta: t.meta}), sql.OpDelete}}
}

func (t *Table[T]) root(n sql.Node) cursor[T] {
	q := cursor[T]{t: t, chain: sql.NewChain(), tail: -1, err: t.err}
	if q.err == nil {
		q.tail = q.chain.Root(n)
	}
	return q
}

// AllStatement returns the statement selecting every row.
func (t *Table[T]) AllStatement() (sql.Statement, error) {
	tmpl, err := t.selectAll()
	if err != nil {
		return sql.Statement{}, err
	}
	return tmpl.Bind()
}

func (t *Table[T]) selectAll() (*sql.Template, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.c.template(t.meta, sql.OpSelect, formAll, func() (*sql.Template, error) {
		return t.c.builder.SelectAll(t.meta), nil
	})
}

// All returns every row of the table.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	stmt, err := t.AllStatement()
	if err != nil {
		return nil, err
	}
	return t.list(ctx, sql.OpSelect, stmt, -1)
}

// GetStatement returns the statement selecting the row with the given key.
// T must have exactly one key column.
func (t *Table[T]) GetStatement(key any) (sql.Statement, error) {
	if key == nil {
		return sql.Statement{}, sql.NewArgumentError("key", "must not be nil")
	}
	tmpl, err := t.keyed(sql.OpSelect, formByKey, t.c.builder.SelectByKey)
	if err != nil {
		return sql.Statement{}, err
	}
	return tmpl.Bind(key)
}

// Get returns the row with the given key.
func (t *Table[T]) Get(ctx context.Context, key any) (*T, error) {
	stmt, err := t.GetStatement(key)
	if err != nil {
		return nil, err
	}
	return t.one(ctx, stmt, key)
}

// GetByKeysStatement returns the statement selecting the row with the given
// composite key. T must have exactly two key columns.
func (t *Table[T]) GetByKeysStatement(k1, k2 any) (sql.Statement, error) {
	if k1 == nil || k2 == nil {
		return sql.Statement{}, sql.NewArgumentError("key", "must not be nil")
	}
	tmpl, err := t.keyed(sql.OpSelect, formByKeys, t.c.builder.SelectByKeys)
	if err != nil {
		return sql.Statement{}, err
	}
	return tmpl.Bind(k1, k2)
}

// GetByKeys returns the row with the given composite key.
func (t *Table[T]) GetByKeys(ctx context.Context, k1, k2 any) (*T, error) {
	stmt, err := t.GetByKeysStatement(k1, k2)
	if err != nil {
		return nil, err
	}
	return t.one(ctx, stmt, []any{k1, k2})
}

// InsertStatement returns the INSERT of entity without the key trailer.
func (t *Table[T]) InsertStatement(entity *T) (sql.Statement, error) {
	return t.bind(sql.OpInsert, formInsert, entity, func(m *schema.Metadata) (*sql.Template, error) {
		return t.c.builder.Insert(m, false), nil
	})
}

// Insert inserts entity and returns the number of affected rows.
func (t *Table[T]) Insert(ctx context.Context, entity *T) (int64, error) {
	stmt, err := t.InsertStatement(entity)
	if err != nil {
		return 0, err
	}
	return t.c.run(ctx, t.meta, sql.OpInsert, stmt)
}

// InsertKeyStatement returns the INSERT of entity followed by the
// dialect's generated-key read back.
func (t *Table[T]) InsertKeyStatement(entity *T) (sql.Statement, error) {
	return t.bind(sql.OpInsert, formInsertKey, entity, func(m *schema.Metadata) (*sql.Template, error) {
		if _, ok := m.AutoKey(); !ok {
			return nil, &schema.ConfigurationError{Type: m.Name(), Msg: "no database-generated key column"}
		}
		return t.c.builder.Insert(m, true), nil
	})
}

// InsertKey inserts entity, stores the generated key in its key field and
// returns it. On MySQL the connection must allow multiple statements.
func (t *Table[T]) InsertKey(ctx context.Context, entity *T) (int64, error) {
	stmt, err := t.InsertKeyStatement(entity)
	if err != nil {
		return 0, err
	}
	rows, err := t.c.query(ctx, t.meta, sql.OpInsert, stmt)
	if err != nil {
		return 0, err
	}
	var key int64
	ok, err := scanValue(rows, &key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NewNotFoundError(t.meta.Name() + " generated key")
	}
	col, _ := t.meta.AutoKey()
	if err := setKey(entity, col, key); err != nil {
		return 0, err
	}
	return key, nil
}

// InsertUnionStatement returns a single INSERT of all entities.
func (t *Table[T]) InsertUnionStatement(entities []T) (sql.Statement, error) {
	if t.err != nil {
		return sql.Statement{}, t.err
	}
	es := make([]any, len(entities))
	for i := range entities {
		es[i] = &entities[i]
	}
	return t.c.builder.InsertUnion(t.meta, es)
}

// InsertUnion inserts all entities with one statement and returns the
// number of affected rows.
func (t *Table[T]) InsertUnion(ctx context.Context, entities []T) (int64, error) {
	stmt, err := t.InsertUnionStatement(entities)
	if err != nil {
		return 0, err
	}
	return t.c.run(ctx, t.meta, sql.OpInsert, stmt)
}

// UpdateEntityStatement returns the UPDATE writing every non-key column of
// entity, matched by its key column(s).
func (t *Table[T]) UpdateEntityStatement(entity *T) (sql.Statement, error) {
	return t.bind(sql.OpUpdate, formUpdate, entity, t.c.builder.Update)
}

// UpdateEntity writes every non-key column of entity and returns the
// number of affected rows.
func (t *Table[T]) UpdateEntity(ctx context.Context, entity *T) (int64, error) {
	stmt, err := t.UpdateEntityStatement(entity)
	if err != nil {
		return 0, err
	}
	return t.c.run(ctx, t.meta, sql.OpUpdate, stmt)
}

// DeleteEntityStatement returns the DELETE of entity, matched by its key
// column(s).
func (t *Table[T]) DeleteEntityStatement(entity *T) (sql.Statement, error) {
	return t.bind(sql.OpDelete, formDelete, entity, t.c.builder.Delete)
}

// DeleteEntity deletes entity and returns the number of affected rows.
func (t *Table[T]) DeleteEntity(ctx context.Context, entity *T) (int64, error) {
	stmt, err := t.DeleteEntityStatement(entity)
	if err != nil {
		return 0, err
	}
	return t.c.run(ctx, t.meta, sql.OpDelete, stmt)
}

// DeleteByKeyStatement returns the DELETE of the row with the given key.
func (t *Table[T]) DeleteByKeyStatement(key any) (sql.Statement, error) {
	if key == nil {
		return sql.Statement{}, sql.NewArgumentError("key", "must not be nil")
	}
	tmpl, err := t.keyed(sql.OpDelete, formDeleteKey, t.c.builder.DeleteByKey)
	if err != nil {
		return sql.Statement{}, err
	}
	return tmpl.Bind(key)
}

// DeleteByKey deletes the row with the given key.
func (t *Table[T]) DeleteByKey(ctx context.Context, key any) (int64, error) {
	stmt, err := t.DeleteByKeyStatement(key)
	if err != nil {
		return 0, err
	}
	return t.c.run(ctx, t.meta, sql.OpDelete, stmt)
}

// DeleteByKeysStatement returns the DELETE of the row with the given
// composite key.
func (t *Table[T]) DeleteByKeysStatement(k1, k2 any) (sql.Statement, error) {
	if k1 == nil || k2 == nil {
		return sql.Statement{}, sql.NewArgumentError("key", "must not be nil")
	}
	tmpl, err := t.keyed(sql.OpDelete, formDeleteKeys, t.c.builder.DeleteByKeys)
	if err != nil {
		return sql.Statement{}, err
	}
	return tmpl.Bind(k1, k2)
}

// DeleteByKeys deletes the row with the given composite key.
func (t *Table[T]) DeleteByKeys(ctx context.Context, k1, k2 any) (int64, error) {
	stmt, err := t.DeleteByKeysStatement(k1, k2)
	if err != nil {
		return 0, err
	}
	return t.c.run(ctx, t.meta, sql.OpDelete, stmt)
}

func (t *Table[T]) keyed(op sql.Op, form string, build func(*schema.Metadata) (*sql.Template, error)) (*sql.Template, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.c.template(t.meta, op, form, func() (*sql.Template, error) {
		return build(t.meta)
	})
}

func (t *Table[T]) bind(op sql.Op, form string, entity *T, build func(*schema.Metadata) (*sql.Template, error)) (sql.Statement, error) {
	if entity == nil {
		return sql.Statement{}, sql.NewArgumentError("entity", "must not be nil")
	}
	tmpl, err := t.keyed(op, form, build)
	if err != nil {
		return sql.Statement{}, err
	}
	return tmpl.BindEntity(t.meta, entity)
}

func (t *Table[T]) list(ctx context.Context, op sql.Op, stmt sql.Statement, limit int) ([]T, error) {
	rows, err := t.c.query(ctx, t.meta, op, stmt)
	if err != nil {
		return nil, err
	}
	return scan[T](rows, t.meta, limit)
}

func (t *Table[T]) one(ctx context.Context, stmt sql.Statement, id any) (*T, error) {
	out, err := t.list(ctx, sql.OpSelect, stmt, 1)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, NewNotFoundErrorWithID(t.meta.Name(), id)
	}
	return &out[0], nil
}

// Raw runs a hand-written query and scans its rows into T by column name.
// Placeholders use the @name form of the generated statements.
func (t *Table[T]) Raw(ctx context.Context, query string, params ...sql.Param) ([]T, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.list(ctx, sql.OpSelect, sql.Statement{SQL: query, Params: params}, -1)
}
