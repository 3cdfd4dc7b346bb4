package schema

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidKeyCount is matched by ConfigurationError values raised when an
// operation needs a different number of key columns than the type has.
var ErrInvalidKeyCount = errors.New("schema: invalid key count")

// ConfigurationError reports an entity mapping that cannot serve the
// requested operation.
type ConfigurationError struct {
	Type string // Entity type name
	Msg  string
	Want int // Required key count, 0 if not key related
	Got  int
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("schema: %s: expected %d key column(s), found %d", e.Type, e.Want, e.Got)
	}
	return fmt.Sprintf("schema: %s: %s", e.Type, e.Msg)
}

// Is reports whether target is ErrInvalidKeyCount for key count errors.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidKeyCount && e.Want > 0
}

// Column is a resolved column of an entity.
type Column struct {
	// Name is the SQL identifier, already quoted when required.
	Name string
	// Field is the Go field name.
	Field string
	// Index is the field index path for reflect.Value.FieldByIndex.
	Index []int
	// Key is true for key columns.
	Key bool
	// Auto is true for keys generated by the database.
	Auto bool
}

// Metadata is the resolved mapping of an entity type. It is immutable once
// returned by a Resolver.
type Metadata struct {
	Type reflect.Type
	// Entity is the entity name, the type name unless defined explicitly.
	Entity  string
	Schema  string
	Table   string
	Columns []Column
	Keys    []string
}

// Name returns the entity type name.
func (m *Metadata) Name() string {
	switch {
	case m.Entity != "":
		return m.Entity
	case m.Type == nil:
		return m.Table
	}
	return m.Type.Name()
}

// ColumnNames returns the column identifiers in declaration order.
func (m *Metadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given identifier or Go field name.
func (m *Metadata) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name || c.Field == name {
			return c, true
		}
	}
	return Column{}, false
}

// KeyColumns returns the key columns in declaration order.
func (m *Metadata) KeyColumns() []Column {
	keys := make([]Column, 0, len(m.Keys))
	for _, c := range m.Columns {
		if c.Key {
			keys = append(keys, c)
		}
	}
	return keys
}

// NonKeyColumns returns every column that is not a key.
func (m *Metadata) NonKeyColumns() []Column {
	cols := make([]Column, 0, len(m.Columns))
	for _, c := range m.Columns {
		if !c.Key {
			cols = append(cols, c)
		}
	}
	return cols
}

// InsertColumns returns the columns written by an INSERT: all columns
// except database-generated keys.
func (m *Metadata) InsertColumns() []Column {
	cols := make([]Column, 0, len(m.Columns))
	for _, c := range m.Columns {
		if !c.Auto {
			cols = append(cols, c)
		}
	}
	return cols
}

// AutoKey returns the database-generated key column, if exactly one exists.
func (m *Metadata) AutoKey() (Column, bool) {
	var (
		found Column
		n     int
	)
	for _, c := range m.Columns {
		if c.Auto {
			found = c
			n++
		}
	}
	return found, n == 1
}

// SingleKey returns the only key column, or a ConfigurationError when the
// type does not have exactly one.
func (m *Metadata) SingleKey() (Column, error) {
	keys, err := m.RequireKeys(1)
	if err != nil {
		return Column{}, err
	}
	return keys[0], nil
}

// PairKey returns the two key columns of a composite-key type.
func (m *Metadata) PairKey() (Column, Column, error) {
	keys, err := m.RequireKeys(2)
	if err != nil {
		return Column{}, Column{}, err
	}
	return keys[0], keys[1], nil
}

// RequireKeys returns the key columns when there are exactly n of them.
func (m *Metadata) RequireKeys(n int) ([]Column, error) {
	keys := m.KeyColumns()
	if len(keys) != n {
		return nil, &ConfigurationError{Type: m.Name(), Want: n, Got: len(keys)}
	}
	return keys, nil
}

// Values returns the values of the given columns read from entity, which
// must be a value or pointer of the resolved type.
func (m *Metadata) Values(entity any, cols []Column) ([]any, error) {
	rv, err := m.indirect(entity)
	if err != nil {
		return nil, err
	}
	vs := make([]any, len(cols))
	for i, c := range cols {
		vs[i] = rv.FieldByIndex(c.Index).Interface()
	}
	return vs, nil
}

// Pointers returns addressable field pointers for the given column names,
// in order, for scanning a row into entity. Unknown names are reported.
func (m *Metadata) Pointers(entity any, names []string) ([]any, error) {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("schema: scan destination must be a non-nil pointer, got %T", entity)
	}
	rv = rv.Elem()
	if rv.Type() != m.Type {
		return nil, fmt.Errorf("schema: scan destination %s does not match %s", rv.Type(), m.Type)
	}
	ptrs := make([]any, len(names))
	for i, name := range names {
		c, ok := m.columnByResult(name)
		if !ok {
			return nil, fmt.Errorf("schema: %s has no column %q", m.Name(), name)
		}
		ptrs[i] = rv.FieldByIndex(c.Index).Addr().Interface()
	}
	return ptrs, nil
}

// columnByResult matches a result-set column name, which drivers report
// without quotes or alias prefix.
func (m *Metadata) columnByResult(name string) (Column, bool) {
	for _, c := range m.Columns {
		if unquote(c.Name) == name || c.Field == name {
			return c, true
		}
	}
	for _, c := range m.Columns {
		if equalFold(unquote(c.Name), name) || equalFold(c.Field, name) {
			return c, true
		}
	}
	return Column{}, false
}

func (m *Metadata) indirect(entity any) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("schema: nil %s entity", m.Name())
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("schema: nil %s entity", m.Name())
		}
		rv = rv.Elem()
	}
	if rv.Type() != m.Type {
		return reflect.Value{}, fmt.Errorf("schema: entity %s does not match %s", rv.Type(), m.Type)
	}
	return rv, nil
}
