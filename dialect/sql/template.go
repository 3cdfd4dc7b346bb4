package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/schema"
)

// Template is a whole-entity statement whose text depends only on the
// entity type. It is computed once per type and bound per call.
type Template struct {
	Op  Op
	SQL string
	// Names lists the parameter names in order.
	Names []string
	// Columns lists the entity column each parameter is read from.
	Columns []schema.Column
	// Key is set when the statement reads back a generated key.
	Key *schema.Column
}

// Bind pairs the template parameters with values.
func (t *Template) Bind(values ...any) (Statement, error) {
	if len(values) != len(t.Names) {
		return Statement{}, NewArgumentError("values", fmt.Sprintf("expected %d value(s), got %d", len(t.Names), len(values)))
	}
	params := make([]Param, len(values))
	for i, v := range values {
		params[i] = Param{Name: t.Names[i], Value: v}
	}
	return Statement{SQL: t.SQL, Params: params}, nil
}

// BindEntity binds the template parameters to the fields of entity.
func (t *Template) BindEntity(m *schema.Metadata, entity any) (Statement, error) {
	vs, err := m.Values(entity, t.Columns)
	if err != nil {
		return Statement{}, err
	}
	return t.Bind(vs...)
}

func (b *Builder) template(op Op, sql string, bd *binder, cols []schema.Column) *Template {
	names := make([]string, len(bd.params))
	for i, p := range bd.params {
		names[i] = p.Name
	}
	return &Template{Op: op, SQL: sql, Names: names, Columns: cols}
}

// SelectAll returns SELECT of every column of m.
func (b *Builder) SelectAll(m *schema.Metadata) *Template {
	sql := "SELECT " + strings.Join(m.ColumnNames(), ", ") + " FROM " + m.Table + ";"
	return b.template(OpSelect, sql, b.newBinder(), nil)
}

// SelectByKey returns SELECT of one row by its single key.
func (b *Builder) SelectByKey(m *schema.Metadata) (*Template, error) {
	keys, err := m.RequireKeys(1)
	if err != nil {
		return nil, err
	}
	return b.selectByKeys(m, keys), nil
}

// SelectByKeys returns SELECT of one row by its two-column key.
func (b *Builder) SelectByKeys(m *schema.Metadata) (*Template, error) {
	keys, err := m.RequireKeys(2)
	if err != nil {
		return nil, err
	}
	return b.selectByKeys(m, keys), nil
}

func (b *Builder) selectByKeys(m *schema.Metadata, keys []schema.Column) *Template {
	bd := b.newBinder()
	sql := "SELECT " + strings.Join(m.ColumnNames(), ", ") + " FROM " + m.Table +
		" WHERE " + b.keyPredicate(keys, bd) + ";"
	return b.template(OpSelect, sql, bd, keys)
}

// Insert returns an INSERT of every non-generated column. With returnKey
// set and a single generated key, the dialect's key trailer is appended.
func (b *Builder) Insert(m *schema.Metadata, returnKey bool) *Template {
	var (
		bd   = b.newBinder()
		cols = m.InsertColumns()
		sb   strings.Builder
	)
	sb.WriteString("INSERT INTO ")
	sb.WriteString(m.Table)
	if len(cols) == 0 {
		if b.dialect.Name() == dialect.MySQL {
			sb.WriteString(" () VALUES ()")
		} else {
			sb.WriteString(" DEFAULT VALUES")
		}
	} else {
		names := make([]string, len(cols))
		holders := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
			holders[i] = bd.bind(c.Name, nil)
		}
		sb.WriteString(" (" + strings.Join(names, ", ") + ")")
		sb.WriteString(" VALUES (" + strings.Join(holders, ", ") + ")")
	}
	var key *schema.Column
	if k, ok := m.AutoKey(); ok && returnKey {
		key = &k
		trailer, inline := b.dialect.KeyTrailer(k.Name)
		if inline {
			sb.WriteString(" " + trailer + ";")
		} else {
			sb.WriteString("; " + trailer + ";")
		}
	} else {
		sb.WriteString(";")
	}
	t := b.template(OpInsert, sb.String(), bd, cols)
	t.Key = key
	return t
}

// InsertUnion returns a single INSERT of all entities, one SELECT per
// entity joined by UNION ALL. Parameter names carry the row index.
func (b *Builder) InsertUnion(m *schema.Metadata, entities []any) (Statement, error) {
	if len(entities) == 0 {
		return Statement{}, NewArgumentError("entities", "at least one entity is required")
	}
	cols := m.InsertColumns()
	if len(cols) == 0 {
		return Statement{}, &schema.ConfigurationError{Type: m.Name(), Msg: "no insertable columns"}
	}
	var (
		bd    = b.newBinder()
		names = make([]string, len(cols))
		rows  = make([]string, len(entities))
	)
	for i, c := range cols {
		names[i] = c.Name
	}
	for r, e := range entities {
		vs, err := m.Values(e, cols)
		if err != nil {
			return Statement{}, err
		}
		holders := make([]string, len(cols))
		for i, c := range cols {
			holders[i] = bd.bindName(b.paramName(c.Name)+strconv.Itoa(r), vs[i])
		}
		rows[r] = "SELECT " + strings.Join(holders, ", ")
	}
	sql := "INSERT INTO " + m.Table + " (" + strings.Join(names, ", ") + ") " +
		strings.Join(rows, " UNION ALL ") + ";"
	return Statement{SQL: sql, Params: bd.params}, nil
}

// Update returns an UPDATE of every non-key column, matched by the key
// column(s) of m.
func (b *Builder) Update(m *schema.Metadata) (*Template, error) {
	keys := m.KeyColumns()
	if len(keys) == 0 {
		return nil, &schema.ConfigurationError{Type: m.Name(), Want: 1, Got: 0}
	}
	cols := m.NonKeyColumns()
	if len(cols) == 0 {
		return nil, &schema.ConfigurationError{Type: m.Name(), Msg: "no updatable columns"}
	}
	bd := b.newBinder()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c.Name + " = " + bd.bind(c.Name, nil)
	}
	sql := "UPDATE " + m.Table + " SET " + strings.Join(sets, ", ") +
		" WHERE " + b.keyPredicate(keys, bd) + ";"
	return b.template(OpUpdate, sql, bd, append(cols, keys...)), nil
}

// Delete returns a DELETE of one entity matched by its key column(s).
func (b *Builder) Delete(m *schema.Metadata) (*Template, error) {
	keys := m.KeyColumns()
	if len(keys) == 0 {
		return nil, &schema.ConfigurationError{Type: m.Name(), Want: 1, Got: 0}
	}
	return b.deleteByKeys(m, keys), nil
}

// DeleteByKey returns a DELETE matched by the single key of m.
func (b *Builder) DeleteByKey(m *schema.Metadata) (*Template, error) {
	keys, err := m.RequireKeys(1)
	if err != nil {
		return nil, err
	}
	return b.deleteByKeys(m, keys), nil
}

// DeleteByKeys returns a DELETE matched by the two-column key of m.
func (b *Builder) DeleteByKeys(m *schema.Metadata) (*Template, error) {
	keys, err := m.RequireKeys(2)
	if err != nil {
		return nil, err
	}
	return b.deleteByKeys(m, keys), nil
}

func (b *Builder) deleteByKeys(m *schema.Metadata, keys []schema.Column) *Template {
	bd := b.newBinder()
	sql := "DELETE FROM " + m.Table + " WHERE " + b.keyPredicate(keys, bd) + ";"
	return b.template(OpDelete, sql, bd, keys)
}

func (b *Builder) keyPredicate(keys []schema.Column, bd *binder) string {
	preds := make([]string, len(keys))
	for i, k := range keys {
		preds[i] = k.Name + " = " + bd.bind(k.Name, nil)
	}
	return strings.Join(preds, " AND ")
}
