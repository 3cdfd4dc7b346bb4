package schema

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
)

type Product struct {
	Id   int64
	Name string
}

type Foo struct {
	FooId int
	Label string
}

type Person struct {
	Person_Id string
	Name      string
}

type Audit struct {
	CreatedBy string
	UpdatedBy string
}

type Invoice struct {
	Number string `db:",explicitkey"`
	Audit
	Total    float64 `db:"Amount"`
	Order    int
	Note     string `db:"-"`
	internal int
}

type OrderLine struct {
	OrderID int `db:",explicitkey"`
	LineNo  int `db:",explicitkey"`
	Qty     int
}

type Keyless struct {
	Name string
}

type described struct {
	ID     int64
	Title  string
	Cached []byte
}

func (described) Describe() *Descriptor {
	return Table("Books").Schema("dbo").Columns(
		Field("ID").Name("BookId").Key(),
		Field("Title").Name("First Name"),
		Ignore("Cached"),
	)
}

type named struct {
	Id int
}

func (named) TableName() string { return "sales.Orders" }

func newResolver(name string) *Resolver {
	return NewResolver(dialect.MustGet(name), Naming{})
}

func TestResolveDeclarationOrder(t *testing.T) {
	r := newResolver(dialect.SQLite)
	m, err := For[Product](r)
	require.NoError(t, err)
	assert.Equal(t, "Products", m.Table)
	assert.Equal(t, []string{"Id", "Name"}, m.ColumnNames())
	assert.Equal(t, []string{"Id"}, m.Keys)
	id, err := m.SingleKey()
	require.NoError(t, err)
	assert.True(t, id.Auto)
}

func TestResolveIdempotent(t *testing.T) {
	r := newResolver(dialect.Postgres)
	m1, err := For[Invoice](r)
	require.NoError(t, err)
	m2, err := r.Resolve(reflect.TypeOf(&Invoice{}))
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, m1.ColumnNames(), m2.ColumnNames())
}

func TestResolveConcurrentFirstUse(t *testing.T) {
	r := newResolver(dialect.MySQL)
	var (
		wg      sync.WaitGroup
		results = make([]*Metadata, 16)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := For[Invoice](r)
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()
	for _, m := range results {
		assert.Equal(t, results[0].ColumnNames(), m.ColumnNames())
	}
}

func TestResolveTypeNameKey(t *testing.T) {
	r := newResolver(dialect.SQLite)
	m, err := For[Foo](r)
	require.NoError(t, err)
	assert.Equal(t, []string{"FooId"}, m.Keys)

	m, err = For[Person](r)
	require.NoError(t, err)
	assert.Equal(t, "People", m.Table)
	assert.Equal(t, []string{"Person_Id"}, m.Keys)
	key, err := m.SingleKey()
	require.NoError(t, err)
	assert.False(t, key.Auto, "string keys are supplied by the caller")
}

func TestEnglishPlural(t *testing.T) {
	tests := map[string]string{
		"Product":     "Products",
		"Category":    "Categories",
		"Person":      "People",
		"SalesPerson": "SalesPeople",
		"OrderLine":   "OrderLines",
		"HTTPServer":  "HTTPServers",
		"sales_child": "sales_children",
		"person":      "people",
	}
	for in, want := range tests {
		assert.Equal(t, want, EnglishPlural(in), in)
	}
}

func TestResolveTags(t *testing.T) {
	r := newResolver(dialect.Postgres)
	m, err := For[Invoice](r)
	require.NoError(t, err)
	assert.Equal(t, []string{"Number", "CreatedBy", "UpdatedBy", "Amount", `"Order"`}, m.ColumnNames())
	assert.Equal(t, []string{"Number"}, m.Keys)
	c, ok := m.Column("Total")
	require.True(t, ok)
	assert.Equal(t, "Amount", c.Name)
	assert.Len(t, m.InsertColumns(), 5)
	assert.Len(t, m.NonKeyColumns(), 4)
}

func TestResolveDescriptor(t *testing.T) {
	r := newResolver(dialect.MySQL)
	m, err := For[described](r)
	require.NoError(t, err)
	assert.Equal(t, "dbo.Books", m.Table)
	assert.Equal(t, "dbo", m.Schema)
	assert.Equal(t, []string{"BookId", "`First Name`"}, m.ColumnNames())
	key, ok := m.AutoKey()
	require.True(t, ok)
	assert.Equal(t, "BookId", key.Name)
	assert.Len(t, m.InsertColumns(), 1)
}

func TestDefine(t *testing.T) {
	typ := reflect.StructOf([]reflect.StructField{
		{Name: "Code", Type: reflect.TypeOf("")},
		{Name: "Id", Type: reflect.TypeOf(int32(0))},
		{Name: "Label", Type: reflect.TypeOf("")},
	})
	r := newResolver(dialect.Postgres)
	m, err := r.Define("Region", typ, nil)
	require.NoError(t, err)
	assert.Equal(t, "Region", m.Name())
	assert.Equal(t, "Regions", m.Table)
	assert.Equal(t, []string{"Id"}, m.Keys)
	_, ok := m.AutoKey()
	assert.True(t, ok)

	m, err = r.Define("Region", typ, Table("geo_regions").Schema("ref").Columns(
		Field("Code").Name("region_code").ExplicitKey(),
		Ignore("Id"),
	))
	require.NoError(t, err)
	assert.Equal(t, "ref.geo_regions", m.Table)
	assert.Equal(t, []string{"region_code", "Label"}, m.ColumnNames())
	assert.Equal(t, []string{"region_code"}, m.Keys)
	_, ok = m.AutoKey()
	assert.False(t, ok)

	_, err = r.Define("", typ, nil)
	assert.Error(t, err)
	_, err = r.Define("Region", reflect.TypeOf(0), nil)
	assert.Error(t, err)
}

func TestResolveTableNamer(t *testing.T) {
	m, err := For[named](newResolver(dialect.SQLServer))
	require.NoError(t, err)
	assert.Equal(t, "sales.Orders", m.Table)
	assert.Equal(t, "sales", m.Schema)
}

func TestResolveNaming(t *testing.T) {
	snake, err := StyleFunc(StyleSnake)
	require.NoError(t, err)
	upper, err := StyleFunc(StyleUpper)
	require.NoError(t, err)
	r := NewResolver(dialect.MustGet(dialect.Postgres), Naming{
		ColumnFormatter: snake,
		TableFormatter:  upper,
	})
	m, err := For[Invoice](r)
	require.NoError(t, err)
	assert.Equal(t, "INVOICES", m.Table)
	assert.Equal(t, []string{"number", "created_by", "updated_by", "Amount", `"order"`}, m.ColumnNames())
	assert.Equal(t, []string{"number"}, m.Keys)

	r = NewResolver(dialect.MustGet(dialect.Postgres), Naming{
		TableMapper: func(t reflect.Type) string {
			if t.Name() == "Product" {
				return "catalog_items"
			}
			return ""
		},
		Pluralize: Identity,
	})
	m, err = For[Product](r)
	require.NoError(t, err)
	assert.Equal(t, "catalog_items", m.Table)
	m, err = For[Foo](r)
	require.NoError(t, err)
	assert.Equal(t, "Foo", m.Table)
}

func TestResolveQuotingPerDialect(t *testing.T) {
	for _, name := range dialect.Names {
		m, err := For[Invoice](newResolver(name))
		require.NoError(t, err)
		order := m.ColumnNames()[4]
		if name == dialect.MySQL {
			assert.Equal(t, "`Order`", order)
		} else {
			assert.Equal(t, `"Order"`, order)
		}
	}
}

func TestKeyCount(t *testing.T) {
	r := newResolver(dialect.SQLite)
	m, err := For[Keyless](r)
	require.NoError(t, err)
	assert.Empty(t, m.Keys)
	_, err = m.SingleKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKeyCount))
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 1, cerr.Want)
	assert.Equal(t, 0, cerr.Got)

	m, err = For[OrderLine](r)
	require.NoError(t, err)
	_, err = m.SingleKey()
	assert.ErrorIs(t, err, ErrInvalidKeyCount)
	a, b, err := m.PairKey()
	require.NoError(t, err)
	assert.Equal(t, "OrderID", a.Name)
	assert.Equal(t, "LineNo", b.Name)
}

func TestResolveErrors(t *testing.T) {
	r := newResolver(dialect.SQLite)
	_, err := r.Resolve(reflect.TypeOf(42))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "struct"))
	_, err = r.ResolveValue(nil)
	require.Error(t, err)
	_, err = r.Resolve(reflect.TypeOf(struct{ x int }{}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidKeyCount))
}

func TestValuesAndPointers(t *testing.T) {
	r := newResolver(dialect.SQLite)
	m, err := For[Invoice](r)
	require.NoError(t, err)
	inv := Invoice{Number: "A-1", Audit: Audit{CreatedBy: "ann"}, Total: 9.5, Order: 2}
	vs, err := m.Values(&inv, m.Columns)
	require.NoError(t, err)
	assert.Equal(t, []any{"A-1", "ann", "", 9.5, 2}, vs)

	_, err = m.Values(Product{}, m.Columns)
	require.Error(t, err)
	_, err = m.Values((*Invoice)(nil), m.Columns)
	require.Error(t, err)

	var out Invoice
	ptrs, err := m.Pointers(&out, []string{"amount", "Order", "Number"})
	require.NoError(t, err)
	*(ptrs[0].(*float64)) = 3
	*(ptrs[1].(*int)) = 7
	*(ptrs[2].(*string)) = "B"
	assert.Equal(t, Invoice{Number: "B", Total: 3, Order: 7}, out)

	_, err = m.Pointers(&out, []string{"missing"})
	require.Error(t, err)
	_, err = m.Pointers(out, []string{"Order"})
	require.Error(t, err)
}

func TestParamName(t *testing.T) {
	assert.Equal(t, "Order", ParamName(`"Order"`))
	assert.Equal(t, "First_Name", ParamName("`First Name`"))
	assert.Equal(t, "Name", ParamName("Name"))
}

func TestStyleFunc(t *testing.T) {
	tests := map[string]string{
		StyleNone:  "ProductName",
		StyleLower: "productname",
		StyleUpper: "PRODUCTNAME",
		StyleTitle: "ProductName",
		StyleSnake: "product_name",
	}
	for style, want := range tests {
		f, err := StyleFunc(style)
		require.NoError(t, err)
		assert.Equal(t, want, f("ProductName"), style)
	}
	_, err := StyleFunc("kebab")
	require.Error(t, err)
}
