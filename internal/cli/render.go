package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/compiler/load"
	"github.com/syssam/sqlkit/dialect/sql"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Entity string // render only this entity
}

// RenderedEntity holds the whole-entity statements of one entity.
type RenderedEntity struct {
	Entity     string              `json:"entity"`
	Table      string              `json:"table"`
	Dialect    string              `json:"dialect"`
	Statements []RenderedStatement `json:"statements"`
}

// RenderedStatement is a single rendered statement.
type RenderedStatement struct {
	Name   string   `json:"name"`
	SQL    string   `json:"sql"`
	Params []string `json:"params"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <entities.yaml|package>",
		Short: "Print the whole-entity statements of each entity",
		Long: `Render the statements sqlkit uses for All, Get, Insert, InsertKey,
UpdateEntity and DeleteEntity, for every entity of a YAML document or of
a Go package.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "render only the named entity")

	return cmd
}

func runRender(cmd *cobra.Command, opts *RenderOptions, arg string) error {
	c, err := opts.client(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	src, err := loadSource(cmd.Context(), arg)
	if err != nil {
		return err
	}
	log := c.Config().Logger
	var out []*RenderedEntity
	for _, e := range src.entities {
		if opts.Entity != "" && e.Name != opts.Entity {
			continue
		}
		r, err := Render(c, e)
		if err != nil {
			return err
		}
		log.Debug("rendered entity", "entity", r.Entity, "table", r.Table, "statements", len(r.Statements))
		out = append(out, r)
	}
	if len(out) == 0 {
		return fmt.Errorf("no entity to render in %s", arg)
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	writeText(cmd.OutOrStdout(), out)
	return nil
}

// Render resolves e with the client's dialect and naming rules and returns
// the statements that apply to it. Statements needing keys are left out
// for entities without the required key columns.
func Render(c *sqlkit.Client, e *load.Entity) (*RenderedEntity, error) {
	m, err := e.Metadata(c)
	if err != nil {
		return nil, err
	}
	b := c.Builder()
	r := &RenderedEntity{Entity: m.Name(), Table: m.Table, Dialect: c.Dialect().Name()}
	add := func(name string, t *sql.Template) {
		r.Statements = append(r.Statements, RenderedStatement{Name: name, SQL: t.SQL, Params: t.Names})
	}
	add("all", b.SelectAll(m))
	switch len(m.Keys) {
	case 1:
		if t, err := b.SelectByKey(m); err == nil {
			add("get", t)
		}
	case 2:
		if t, err := b.SelectByKeys(m); err == nil {
			add("get", t)
		}
	}
	add("insert", b.Insert(m, false))
	if _, ok := m.AutoKey(); ok {
		add("insert_key", b.Insert(m, true))
	}
	if t, err := b.Update(m); err == nil {
		add("update", t)
	}
	if t, err := b.Delete(m); err == nil {
		add("delete", t)
	}
	return r, nil
}

func writeText(w io.Writer, entities []*RenderedEntity) {
	for i, r := range entities {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "-- %s: %s (%s)\n", r.Entity, r.Table, r.Dialect)
		for _, s := range r.Statements {
			fmt.Fprintf(w, "%-12s%s\n", s.Name+":", s.SQL)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
