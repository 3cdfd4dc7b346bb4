package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/sqlkit/dialect"
)

// TagName is the struct tag read when a type has no Descriptor.
//
//	type Product struct {
//	    ID     int64  `db:"Id,key"`
//	    SKU    string `db:",explicitkey"`
//	    Name   string
//	    Cached []byte `db:"-"`
//	}
const TagName = "db"

// Resolver resolves entity metadata and caches it per type for its
// lifetime. A Resolver is safe for concurrent use.
type Resolver struct {
	dialect dialect.Dialect
	naming  Naming
	cache   sync.Map // reflect.Type => *Metadata
	group   singleflight.Group
}

// NewResolver returns a Resolver quoting identifiers for d.
func NewResolver(d dialect.Dialect, naming Naming) *Resolver {
	return &Resolver{dialect: d, naming: naming}
}

// Dialect returns the dialect identifiers are quoted for.
func (r *Resolver) Dialect() dialect.Dialect { return r.dialect }

// For resolves the metadata of T.
func For[T any](r *Resolver) (*Metadata, error) {
	return r.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

// ResolveValue resolves the metadata of the dynamic type of v.
func (r *Resolver) ResolveValue(v any) (*Metadata, error) {
	if v == nil {
		return nil, fmt.Errorf("schema: cannot resolve nil value")
	}
	return r.Resolve(reflect.TypeOf(v))
}

// Resolve returns the metadata of t, which must be a struct type or a
// pointer to one. Concurrent first use of a type computes it once.
func (r *Resolver) Resolve(t reflect.Type) (*Metadata, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &ConfigurationError{Type: fmt.Sprint(t), Msg: "entity must be a struct type"}
	}
	if m, ok := r.cache.Load(t); ok {
		return m.(*Metadata), nil
	}
	v, err, _ := r.group.Do(t.PkgPath()+"|"+t.String(), func() (any, error) {
		if m, ok := r.cache.Load(t); ok {
			return m, nil
		}
		m, err := r.build(t)
		if err != nil {
			return nil, err
		}
		actual, _ := r.cache.LoadOrStore(t, m)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	m := v.(*Metadata)
	// Distinct types may share a flight key (e.g. anonymous structs).
	if m.Type != t {
		if m, err = r.build(t); err != nil {
			return nil, err
		}
		actual, _ := r.cache.LoadOrStore(t, m)
		m = actual.(*Metadata)
	}
	return m, nil
}

// Define resolves the metadata of a struct type built at run time, such as
// one returned by reflect.StructOf, under the given entity name. The result
// is not cached.
func (r *Resolver) Define(name string, t reflect.Type, desc *Descriptor) (*Metadata, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &ConfigurationError{Type: name, Msg: "entity must be a struct type"}
	}
	if name == "" {
		return nil, &ConfigurationError{Type: t.String(), Msg: "entity name required"}
	}
	return r.describe(t, name, desc, reflect.New(t).Interface())
}

func (r *Resolver) build(t reflect.Type) (*Metadata, error) {
	var desc *Descriptor
	zero := reflect.New(t).Interface()
	if d, ok := zero.(Describer); ok {
		desc = d.Describe()
	}
	return r.describe(t, t.Name(), desc, zero)
}

func (r *Resolver) describe(t reflect.Type, name string, desc *Descriptor, zero any) (*Metadata, error) {
	m := &Metadata{Type: t, Entity: name}
	if err := r.collect(m, t, nil, desc); err != nil {
		return nil, err
	}
	if len(m.Columns) == 0 {
		return nil, &ConfigurationError{Type: name, Msg: "no mapped columns"}
	}
	if !desc.hasKeys() && !m.hasTaggedKeys() {
		r.guessKeys(m)
	}
	for _, c := range m.Columns {
		if c.Key {
			m.Keys = append(m.Keys, c.Name)
		}
	}
	m.Schema, m.Table = r.tableName(t, name, desc, zero)
	return m, nil
}

func (m *Metadata) hasTaggedKeys() bool {
	for _, c := range m.Columns {
		if c.Key {
			return true
		}
	}
	return false
}

// collect appends the columns of t in field order. Anonymous struct fields
// are flattened in place.
func (r *Resolver) collect(m *Metadata, t reflect.Type, index []int, desc *Descriptor) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := append(append([]int(nil), index...), i)
		tag, hasTag := f.Tag.Lookup(TagName)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && !hasTag {
			if err := r.collect(m, f.Type, idx, desc); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() || tag == "-" {
			continue
		}
		col := Column{Field: f.Name, Index: idx}
		name, opts, _ := strings.Cut(tag, ",")
		if cd := desc.lookup(f.Name); cd != nil {
			if cd.ignore {
				continue
			}
			name = cd.name
			col.Key = cd.key != keyNone
			col.Auto = cd.key == keyGenerated
		} else {
			for _, opt := range strings.Split(opts, ",") {
				switch strings.TrimSpace(opt) {
				case "key":
					col.Key, col.Auto = true, true
				case "explicitkey":
					col.Key = true
				}
			}
		}
		if name == "" {
			name = r.naming.formatColumn(f.Name)
		}
		col.Name = r.dialect.QuoteIfNeeded(name)
		if _, dup := m.Column(col.Name); dup {
			return &ConfigurationError{Type: m.Name(), Msg: fmt.Sprintf("duplicate column %q", name)}
		}
		m.Columns = append(m.Columns, col)
	}
	return nil
}

// guessKeys marks columns named Id, <Type>Id or <Type>_Id as keys. Integer
// keys found this way are assumed to be generated by the database.
func (r *Resolver) guessKeys(m *Metadata) {
	typ := m.Name()
	candidates := []string{"Id", typ + "Id", typ + "_Id"}
	for i, c := range m.Columns {
		for _, cand := range candidates {
			if equalFold(c.Field, cand) || equalFold(unquote(c.Name), cand) {
				m.Columns[i].Key = true
				m.Columns[i].Auto = isInteger(m.Type.FieldByIndex(c.Index).Type)
				break
			}
		}
	}
}

func (r *Resolver) tableName(t reflect.Type, entity string, desc *Descriptor, zero any) (string, string) {
	var schemaName, name string
	if r.naming.TableMapper != nil {
		name = r.naming.TableMapper(t)
	}
	if name == "" && desc != nil {
		schemaName, name = desc.schema, desc.table
	}
	if name == "" {
		if tn, ok := zero.(TableNamer); ok {
			name = tn.TableName()
			if s, n, ok := strings.Cut(name, "."); ok {
				schemaName, name = s, n
			}
		}
	}
	if name == "" {
		name = r.naming.pluralize(entity)
	}
	name = r.dialect.QuoteIfNeeded(r.naming.formatTable(name))
	if schemaName == "" {
		return "", name
	}
	schemaName = r.dialect.QuoteIfNeeded(schemaName)
	return schemaName, schemaName + "." + name
}

func isInteger(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func unquote(s string) string { return dialect.Unquote(s) }

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

// ParamName turns a column identifier into a bare parameter name: quotes
// are removed and whitespace becomes an underscore.
func ParamName(column string) string {
	column = dialect.Unquote(column)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, column)
}
