// Package schema resolves how Go struct types map to tables and columns.
//
// A Resolver inspects a type once and caches the resulting Metadata for its
// own lifetime. Metadata lists the columns in field declaration order, the
// key columns, and the (optionally schema-qualified) table name.
//
// # Explicit Descriptors
//
// Types implementing Describer declare their mapping explicitly:
//
//	func (Product) Describe() *schema.Descriptor {
//	    return schema.Table("Products").Schema("dbo").Columns(
//	        schema.Field("ID").Name("Id").Key(),
//	        schema.Ignore("Cached"),
//	    )
//	}
//
// # Struct Tags
//
// Without a descriptor the "db" struct tag is consulted:
//
//	type Product struct {
//	    ID   int64  `db:"Id,key"`
//	    Name string `db:"ProductName"`
//	    Tmp  string `db:"-"`
//	}
//
// # Naming Rules
//
// Table names are taken, in order, from Naming.TableMapper, the descriptor
// or TableName method, or the pluralized type name. Column names come from
// the descriptor or tag, else from the field name passed through
// Naming.ColumnFormatter. Reserved words and names containing whitespace are
// quoted for the resolver's dialect.
//
// # Keys
//
// Without explicit keys, columns named Id, <Type>Id or <Type>_Id are keys.
// Key counts are only checked by operations that need them (SingleKey,
// PairKey), which return a ConfigurationError matching ErrInvalidKeyCount.
package schema
