package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqlkit/compiler/load"
)

const (
	exprPkg = "github.com/syssam/sqlkit/expr"
	header  = "Code generated by sqlkit. DO NOT EDIT."
)

// Generator writes typed column references for loaded entities. For an
// entity Product in package models it emits product_columns.go:
//
//	var (
//		ProductId   = expr.Field[int64]("Id")
//		ProductName = expr.StringField("Name")
//	)
//
//	var ProductColumns = []string{"Id", "Name"}
type Generator struct {
	definer load.Definer
	pkg     string
	workers int
}

// New returns a Generator emitting files of package pkg. Column names are
// resolved, and quoted where needed, by d.
func New(pkg string, d load.Definer) *Generator {
	return &Generator{
		definer: d,
		pkg:     pkg,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *Generator) WithWorkers(n int) *Generator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// File returns the generated file of e.
func (g *Generator) File(e *load.Entity) (*jen.File, error) {
	m, err := e.Metadata(g.definer)
	if err != nil {
		return nil, err
	}
	f := jen.NewFile(g.pkg)
	f.HeaderComment(header)
	f.ImportName(exprPkg, "expr")

	vars := make([]jen.Code, 0, len(m.Columns))
	names := make([]jen.Code, 0, len(m.Columns))
	for _, c := range m.Columns {
		field, _ := e.Field(c.Field)
		vars = append(vars, jen.Id(e.Name+c.Field).Op("=").Add(fieldType(field.Type)).Call(jen.Lit(c.Name)))
		names = append(names, jen.Lit(c.Name))
	}
	f.Commentf("%s column references for %s.", e.Name, m.Table)
	f.Var().Defs(vars...)
	f.Commentf("%sColumns lists the columns of %s in declaration order.", e.Name, m.Table)
	f.Var().Id(e.Name + "Columns").Op("=").Index().String().Values(names...)
	if len(m.Keys) > 0 {
		keys := make([]jen.Code, len(m.Keys))
		for i, k := range m.Keys {
			keys[i] = jen.Lit(k)
		}
		f.Commentf("%sKeys lists the key columns of %s.", e.Name, m.Table)
		f.Var().Id(e.Name + "Keys").Op("=").Index().String().Values(keys...)
	}
	return f, nil
}

// fieldType returns the expr constructor for a loaded field type.
func fieldType(typ string) jen.Code {
	switch typ {
	case "string":
		return jen.Qual(exprPkg, "StringField")
	case "bool":
		return jen.Qual(exprPkg, "BoolField")
	}
	return jen.Qual(exprPkg, "Field").Types(goType(typ))
}

func goType(typ string) jen.Code {
	switch {
	case typ == "any":
		return jen.Any()
	case typ == "[]byte":
		return jen.Index().Byte()
	case typ == "time.Time":
		return jen.Qual("time", "Time")
	case typ == "uuid.UUID":
		return jen.Qual("github.com/google/uuid", "UUID")
	case strings.HasPrefix(typ, "sql."):
		return jen.Qual("database/sql", strings.TrimPrefix(typ, "sql."))
	}
	return jen.Id(typ)
}

// FileName returns the name of the file generated for e.
func FileName(e *load.Entity) string {
	return strings.ToLower(e.Name) + "_columns.go"
}

// Generate writes one file per entity into dir, in parallel, and returns
// the written paths sorted.
func (g *Generator) Generate(ctx context.Context, dir string, entities []*load.Entity) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("gen: create output directory: %w", err)
	}
	var (
		mu      sync.Mutex
		written []string
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, e := range entities {
		e := e
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, FileName(e))
			if err := g.writeFile(e, path); err != nil {
				return err
			}
			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(written)
	return written, nil
}

func (g *Generator) writeFile(e *load.Entity, path string) error {
	f, err := g.File(e)
	if err != nil {
		return fmt.Errorf("gen: %s: %w", e.Name, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gen: %w", err)
	}
	if err := f.Render(out); err != nil {
		out.Close()
		return fmt.Errorf("gen: render %s: %w", path, err)
	}
	return out.Close()
}
