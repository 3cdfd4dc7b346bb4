package schema

// Describer is implemented by entity types that declare their mapping
// explicitly. Describe is called once on the zero value of the type.
//
//	func (Product) Describe() *schema.Descriptor {
//	    return schema.Table("Products").Columns(
//	        schema.Field("ID").Name("Id").Key(),
//	        schema.Field("Name"),
//	        schema.Ignore("Cached"),
//	    )
//	}
type Describer interface {
	Describe() *Descriptor
}

// TableNamer is implemented by entity types that only need to override
// their table name.
type TableNamer interface {
	TableName() string
}

// Descriptor is the explicit mapping of an entity type.
type Descriptor struct {
	table   string
	schema  string
	columns []*ColumnDescriptor
}

// Table starts a Descriptor for the named table. An empty name keeps the
// derived (pluralized) table name.
func Table(name string) *Descriptor {
	return &Descriptor{table: name}
}

// Schema sets the table schema, e.g. "dbo".
func (d *Descriptor) Schema(name string) *Descriptor {
	d.schema = name
	return d
}

// Columns appends column descriptors.
func (d *Descriptor) Columns(cs ...*ColumnDescriptor) *Descriptor {
	d.columns = append(d.columns, cs...)
	return d
}

func (d *Descriptor) lookup(field string) *ColumnDescriptor {
	if d == nil {
		return nil
	}
	for _, c := range d.columns {
		if c.field == field {
			return c
		}
	}
	return nil
}

func (d *Descriptor) hasKeys() bool {
	if d == nil {
		return false
	}
	for _, c := range d.columns {
		if c.key != keyNone {
			return true
		}
	}
	return false
}

type keyKind uint8

const (
	keyNone keyKind = iota
	keyGenerated
	keyExplicit
)

// ColumnDescriptor describes how a single struct field maps to a column.
type ColumnDescriptor struct {
	field  string
	name   string
	key    keyKind
	ignore bool
}

// Field describes the struct field with the given Go name.
func Field(field string) *ColumnDescriptor {
	return &ColumnDescriptor{field: field}
}

// Ignore excludes the struct field from the mapping.
func Ignore(field string) *ColumnDescriptor {
	return &ColumnDescriptor{field: field, ignore: true}
}

// Name sets the column name.
func (c *ColumnDescriptor) Name(name string) *ColumnDescriptor {
	c.name = name
	return c
}

// Key marks the column as a database-generated key. Generated keys are
// left out of INSERT column lists.
func (c *ColumnDescriptor) Key() *ColumnDescriptor {
	c.key = keyGenerated
	return c
}

// ExplicitKey marks the column as a key whose value is supplied by the
// caller on insert.
func (c *ColumnDescriptor) ExplicitKey() *ColumnDescriptor {
	c.key = keyExplicit
	return c
}
