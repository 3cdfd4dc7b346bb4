package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json"
	Config  string // path to a sqlkit.yaml
	Dialect string // overrides the configured dialect
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the sqlkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "sqlkit",
		Short:         "Render and generate sqlkit statements",
		Long:          "Inspect the SQL sqlkit renders for entity mappings and generate typed column references.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Dialect != "" {
				if _, err := dialect.Get(opts.Dialect); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "configuration file")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "SQL dialect (sqlserver|postgres|mysql|sqlite)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewGenCommand(opts))

	return cmd
}

// client returns a render-only client configured from the config file and
// the dialect flag. Verbose logs go to errw.
func (o *RootOptions) client(errw io.Writer) (*sqlkit.Client, error) {
	var opts []sqlkit.Option
	if o.Config != "" {
		fc, err := sqlkit.LoadConfig(o.Config)
		if err != nil {
			return nil, err
		}
		if opts, err = fc.Options(); err != nil {
			return nil, err
		}
	}
	if o.Dialect != "" {
		opts = append(opts, sqlkit.WithDialect(o.Dialect))
	}
	opts = append(opts, sqlkit.WithLogger(o.logger(errw)))
	return sqlkit.New(nil, opts...)
}

func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
