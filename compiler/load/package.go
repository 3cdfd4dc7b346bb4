package load

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/sqlkit/schema"
)

// Package holds the entities found in a loaded Go package.
type Package struct {
	Name     string
	PkgPath  string
	Dir      string
	Entities []*Entity
}

// LoadPackage type-checks the Go package matching pattern, relative to dir,
// and returns its entity structs: exported struct types with at least one
// field carrying a `db` tag. A TableName method returning a string literal
// sets the table name.
func LoadPackage(ctx context.Context, dir, pattern string) (*Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load: loading package %q: %w", pattern, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("load: pattern %q matched %d packages, expected 1", pattern, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("load: %s: %v", pkg.PkgPath, pkg.Errors[0])
	}
	out := &Package{Name: pkg.Name, PkgPath: pkg.PkgPath}
	if len(pkg.GoFiles) > 0 {
		out.Dir = filepath.Dir(pkg.GoFiles[0])
	}
	tables := tableNames(pkg.Syntax)
	scope := pkg.Types.Scope()
	names := scope.Names()
	sort.Strings(names)
	for _, name := range names {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !obj.Exported() || obj.IsAlias() {
			continue
		}
		st, ok := obj.Type().Underlying().(*types.Struct)
		if !ok || !tagged(st) {
			continue
		}
		e := &Entity{
			Name: name,
			Pos:  pkg.Fset.Position(obj.Pos()).String(),
		}
		if table, ok := tables[name]; ok {
			if s, t, ok := strings.Cut(table, "."); ok {
				e.Schema, e.Table = s, t
			} else {
				e.Table = table
			}
		}
		if err := collect(e, st); err != nil {
			return nil, err
		}
		if len(e.Fields) > 0 {
			out.Entities = append(out.Entities, e)
		}
	}
	return out, nil
}

// tagged reports whether st, or a struct embedded in it, has a field with
// a `db` tag.
func tagged(st *types.Struct) bool {
	for i := 0; i < st.NumFields(); i++ {
		if _, ok := reflect.StructTag(st.Tag(i)).Lookup(schema.TagName); ok {
			return true
		}
		f := st.Field(i)
		if emb, ok := f.Type().Underlying().(*types.Struct); ok && f.Embedded() && tagged(emb) {
			return true
		}
	}
	return false
}

// collect appends the mapped fields of st to e, flattening embedded
// structs the way the resolver does.
func collect(e *Entity, st *types.Struct) error {
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		tag, hasTag := reflect.StructTag(st.Tag(i)).Lookup(schema.TagName)
		if emb, ok := f.Type().Underlying().(*types.Struct); ok && f.Embedded() && !hasTag {
			if err := collect(e, emb); err != nil {
				return err
			}
			continue
		}
		if !f.Exported() || tag == "-" {
			continue
		}
		if _, dup := e.Field(f.Name()); dup {
			return fmt.Errorf("load: %s: duplicate field %s", e.Name, f.Name())
		}
		name, opts, _ := strings.Cut(tag, ",")
		field := &Field{Name: f.Name(), Type: typeName(f.Type()), Column: name}
		for _, opt := range strings.Split(opts, ",") {
			switch strings.TrimSpace(opt) {
			case "key":
				field.Key = KeyGenerated
			case "explicitkey":
				field.Key = KeyExplicit
			}
		}
		e.Fields = append(e.Fields, field)
	}
	return nil
}

// typeName returns the supported type name of t. Named types with a basic
// underlying type map to that basic type; anything else is "any".
func typeName(t types.Type) string {
	name := types.TypeString(t, func(p *types.Package) string { return p.Name() })
	if _, ok := goTypes[name]; ok {
		return name
	}
	if b, ok := t.Underlying().(*types.Basic); ok {
		if _, ok := goTypes[b.Name()]; ok {
			return b.Name()
		}
	}
	if s, ok := t.Underlying().(*types.Slice); ok {
		if b, ok := s.Elem().(*types.Basic); ok && b.Kind() == types.Byte {
			return "[]byte"
		}
	}
	return "any"
}

// tableNames collects TableName methods whose body returns a string
// literal, keyed by receiver type name.
func tableNames(files []*ast.File) map[string]string {
	names := make(map[string]string)
	for _, file := range files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "TableName" || fn.Recv == nil || len(fn.Recv.List) != 1 || fn.Body == nil {
				continue
			}
			recv := fn.Recv.List[0].Type
			if star, ok := recv.(*ast.StarExpr); ok {
				recv = star.X
			}
			id, ok := recv.(*ast.Ident)
			if !ok || len(fn.Body.List) != 1 {
				continue
			}
			ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
			if !ok || len(ret.Results) != 1 {
				continue
			}
			lit, ok := ret.Results[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			if s, err := strconv.Unquote(lit.Value); err == nil {
				names[id.Name] = s
			}
		}
	}
	return names
}
