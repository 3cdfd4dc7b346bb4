package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/syssam/sqlkit/compiler/load"
)

// source is a set of entities read from a YAML document or a Go package.
type source struct {
	pkg      string // Go package name, empty for documents
	dir      string // package directory, empty for documents
	entities []*load.Entity
}

// loadSource reads arg as a YAML document when it has a .yaml or .yml
// extension and as a Go package pattern otherwise.
func loadSource(ctx context.Context, arg string) (*source, error) {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		doc, err := load.LoadDocument(arg)
		if err != nil {
			return nil, err
		}
		return &source{entities: doc.Entities}, nil
	}
	pkg, err := load.LoadPackage(ctx, ".", arg)
	if err != nil {
		return nil, err
	}
	return &source{pkg: pkg.Name, dir: pkg.Dir, entities: pkg.Entities}, nil
}
