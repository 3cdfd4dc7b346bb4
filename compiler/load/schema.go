package load

import (
	"database/sql"
	"fmt"
	"go/token"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/sqlkit/schema"
)

// Key kinds accepted in Field.Key.
const (
	KeyGenerated = "generated"
	KeyExplicit  = "explicit"
)

// Entity represents an entity mapping loaded from a YAML document or a
// Go package.
type Entity struct {
	Name   string   `json:"name" yaml:"name"`
	Table  string   `json:"table,omitempty" yaml:"table,omitempty"`
	Schema string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Fields []*Field `json:"fields" yaml:"fields"`
	// Pos is the source position of package-loaded entities.
	Pos string `json:"-" yaml:"-"`
}

// Field represents a single mapped struct field.
type Field struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	Key    string `json:"key,omitempty" yaml:"key,omitempty"`
	Ignore bool   `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// goTypes maps the field type names understood by the loader to their Go
// types. Package-loaded fields of any other type are recorded as "any".
var goTypes = map[string]reflect.Type{
	"any":             reflect.TypeOf((*any)(nil)).Elem(),
	"bool":            reflect.TypeOf(false),
	"string":          reflect.TypeOf(""),
	"int":             reflect.TypeOf(int(0)),
	"int8":            reflect.TypeOf(int8(0)),
	"int16":           reflect.TypeOf(int16(0)),
	"int32":           reflect.TypeOf(int32(0)),
	"int64":           reflect.TypeOf(int64(0)),
	"uint":            reflect.TypeOf(uint(0)),
	"uint8":           reflect.TypeOf(uint8(0)),
	"uint16":          reflect.TypeOf(uint16(0)),
	"uint32":          reflect.TypeOf(uint32(0)),
	"uint64":          reflect.TypeOf(uint64(0)),
	"float32":         reflect.TypeOf(float32(0)),
	"float64":         reflect.TypeOf(float64(0)),
	"[]byte":          reflect.TypeOf([]byte(nil)),
	"time.Time":       reflect.TypeOf(time.Time{}),
	"uuid.UUID":       reflect.TypeOf(uuid.UUID{}),
	"sql.NullBool":    reflect.TypeOf(sql.NullBool{}),
	"sql.NullString":  reflect.TypeOf(sql.NullString{}),
	"sql.NullInt32":   reflect.TypeOf(sql.NullInt32{}),
	"sql.NullInt64":   reflect.TypeOf(sql.NullInt64{}),
	"sql.NullFloat64": reflect.TypeOf(sql.NullFloat64{}),
	"sql.NullTime":    reflect.TypeOf(sql.NullTime{}),
}

// Types returns the supported field type names, sorted.
func Types() []string {
	names := make([]string, 0, len(goTypes))
	for name := range goTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GoType returns the Go type of a supported type name.
func GoType(name string) (reflect.Type, bool) {
	t, ok := goTypes[name]
	return t, ok
}

// Validate checks that e can be turned into a struct type.
func (e *Entity) Validate() error {
	if !token.IsIdentifier(e.Name) {
		return fmt.Errorf("load: invalid entity name %q", e.Name)
	}
	if len(e.Fields) == 0 {
		return fmt.Errorf("load: entity %s: no fields", e.Name)
	}
	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if !token.IsIdentifier(f.Name) || !token.IsExported(f.Name) {
			return fmt.Errorf("load: entity %s: field %q is not an exported identifier", e.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("load: entity %s: duplicate field %s", e.Name, f.Name)
		}
		seen[f.Name] = true
		if _, ok := goTypes[f.Type]; !ok {
			return fmt.Errorf("load: entity %s: field %s: unsupported type %q", e.Name, f.Name, f.Type)
		}
		switch f.Key {
		case "", KeyGenerated, KeyExplicit:
		default:
			return fmt.Errorf("load: entity %s: field %s: unknown key kind %q", e.Name, f.Name, f.Key)
		}
	}
	return nil
}

// StructType builds the struct type described by e.
func (e *Entity) StructType() (reflect.Type, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	fields := make([]reflect.StructField, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = reflect.StructField{Name: f.Name, Type: goTypes[f.Type]}
	}
	return reflect.StructOf(fields), nil
}

// Descriptor returns the explicit mapping of e.
func (e *Entity) Descriptor() *schema.Descriptor {
	d := schema.Table(e.Table).Schema(e.Schema)
	for _, f := range e.Fields {
		if f.Ignore {
			d.Columns(schema.Ignore(f.Name))
			continue
		}
		c := schema.Field(f.Name).Name(f.Column)
		switch f.Key {
		case KeyGenerated:
			c.Key()
		case KeyExplicit:
			c.ExplicitKey()
		}
		d.Columns(c)
	}
	return d
}

// Field returns the field with the given Go name.
func (e *Entity) Field(name string) (*Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Definer resolves run-time struct types. It is implemented by
// *schema.Resolver and *sqlkit.Client.
type Definer interface {
	Define(name string, t reflect.Type, desc *schema.Descriptor) (*schema.Metadata, error)
}

// Metadata resolves the mapping of e with d.
func (e *Entity) Metadata(d Definer) (*schema.Metadata, error) {
	t, err := e.StructType()
	if err != nil {
		return nil, err
	}
	return d.Define(e.Name, t, e.Descriptor())
}
