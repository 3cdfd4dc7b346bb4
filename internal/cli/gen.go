package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/compiler/gen"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	Output  string // output directory
	Package string // output package name
	Workers int
	Watch   bool // regenerate on source changes
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen <entities.yaml|package>",
		Short: "Generate typed column references",
		Long: `Generate one <entity>_columns.go file per entity, declaring an
expr.Field for every mapped column.

For a Go package the files are written next to its sources, in the same
package, unless --output and --package say otherwise.

With --watch the files are regenerated whenever the document or a source
file of the package changes, until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "output package name")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel workers (default GOMAXPROCS)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "regenerate on changes")

	return cmd
}

func runGen(cmd *cobra.Command, opts *GenOptions, arg string) error {
	c, err := opts.client(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	src, err := generate(cmd, opts, c, arg)
	if err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	dir, match, err := watchTarget(arg, src)
	if err != nil {
		return err
	}
	return watch(cmd.Context(), dir, match, c.Config().Logger, func() error {
		_, err := generate(cmd, opts, c, arg)
		return err
	})
}

// generate loads arg and writes its column files.
func generate(cmd *cobra.Command, opts *GenOptions, c *sqlkit.Client, arg string) (*source, error) {
	src, err := loadSource(cmd.Context(), arg)
	if err != nil {
		return nil, err
	}
	dir, pkg := opts.Output, opts.Package
	if dir == "" {
		dir = src.dir
	}
	if pkg == "" {
		pkg = src.pkg
	}
	if dir == "" || pkg == "" {
		return nil, fmt.Errorf("--output and --package are required for %s", arg)
	}
	if len(src.entities) == 0 {
		return nil, fmt.Errorf("no entities found in %s", arg)
	}
	c.Config().Logger.Debug("generating columns", "entities", len(src.entities), "dir", dir, "package", pkg)
	files, err := gen.New(pkg, c).WithWorkers(opts.Workers).Generate(cmd.Context(), dir, src.entities)
	if err != nil {
		return nil, err
	}
	if opts.Format == "json" {
		return src, writeJSON(cmd.OutOrStdout(), map[string][]string{"files": files})
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return src, nil
}
