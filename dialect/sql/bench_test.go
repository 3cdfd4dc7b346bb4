package sql

import (
	"testing"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/expr"
	"github.com/syssam/sqlkit/schema"
)

func benchMeta(b *testing.B, name string) *schema.Metadata {
	b.Helper()
	m, err := schema.For[Product](schema.NewResolver(dialect.MustGet(name), schema.Naming{}))
	if err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkInsertTemplate(b *testing.B) {
	for _, d := range dialect.Names {
		b.Run(d, func(b *testing.B) {
			m, bd := benchMeta(b, d), builder(d)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				bd.Insert(m, true)
			}
		})
	}
}

func BenchmarkBindEntity(b *testing.B) {
	m, bd := benchMeta(b, dialect.Postgres), builder(dialect.Postgres)
	tmpl := bd.Insert(m, true)
	p := &Product{Name: "tea", CategoryId: 2}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := tmpl.BindEntity(m, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssembleSelect(b *testing.B) {
	for _, d := range dialect.Names {
		b.Run(d, func(b *testing.B) {
			m, bd := benchMeta(b, d), builder(d)
			ts, err := expr.Translate(expr.And(
				expr.Eq(expr.Col("CategoryId"), expr.Const(int64(2))),
				expr.Cmp(expr.OpLike, expr.Col("Name"), expr.Const("t%")),
			))
			if err != nil {
				b.Fatal(err)
			}
			c := NewChain()
			tail := c.Root(Node{Kind: KindFrom, Meta: m})
			tail = c.Append(tail, Node{Kind: KindWhere, Triples: ts})
			tail = c.Append(tail, Node{Kind: KindOrderBy, Orders: []Order{{Column: "Name"}}})
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := bd.Assemble(OpSelect, c, tail); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRebind(b *testing.B) {
	stmt := Statement{
		SQL:    "SELECT Id, Name FROM Products WHERE CategoryId = @CategoryId AND Name LIKE @Name",
		Params: []Param{{Name: "CategoryId", Value: 2}, {Name: "Name", Value: "t%"}},
	}
	for _, d := range dialect.Names {
		b.Run(d, func(b *testing.B) {
			dl := dialect.MustGet(d)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, _, err := Rebind(dl, stmt.SQL, stmt.Params); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
