package sqlkit

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/schema"
)

// Config is the immutable configuration of a Client. It is assembled from
// options once, in New, and never changes afterwards.
type Config struct {
	// Dialect is the dialect name. Defaults to dialect.SQLServer.
	Dialect string
	// Naming holds the table and column naming callbacks.
	Naming schema.Naming
	// ParamFormatter post-processes every derived parameter name.
	ParamFormatter func(string) string
	// Logger receives a debug record for every assembled statement.
	Logger *slog.Logger
	// Hooks are notified before every execution.
	Hooks []Hooks
	// Policy may veto statements before they are executed.
	Policy Policy
}

// Option configures a Client.
type Option func(*Config)

// WithDialect sets the dialect by name.
func WithDialect(name string) Option {
	return func(c *Config) {
		c.Dialect = name
	}
}

// WithNaming replaces all naming callbacks.
func WithNaming(n schema.Naming) Option {
	return func(c *Config) {
		c.Naming = n
	}
}

// WithTableMapper sets the callback that names the table of a type. It
// takes precedence over descriptors and pluralization.
func WithTableMapper(f func(reflect.Type) string) Option {
	return func(c *Config) {
		c.Naming.TableMapper = f
	}
}

// WithTableFormatter sets the formatter applied to every table name.
func WithTableFormatter(f func(string) string) Option {
	return func(c *Config) {
		c.Naming.TableFormatter = f
	}
}

// WithColumnFormatter sets the formatter applied to column names derived
// from field names.
func WithColumnFormatter(f func(string) string) Option {
	return func(c *Config) {
		c.Naming.ColumnFormatter = f
	}
}

// WithPluralizer replaces the default English pluralizer. Use
// schema.Identity to keep type names as they are.
func WithPluralizer(f func(string) string) Option {
	return func(c *Config) {
		c.Naming.Pluralize = f
	}
}

// WithParamFormatter sets the formatter applied to parameter names.
func WithParamFormatter(f func(string) string) Option {
	return func(c *Config) {
		c.ParamFormatter = f
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithHooks subscribes h to execution events. It may be given more than
// once; subscribers are called in order.
func WithHooks(h Hooks) Option {
	return func(c *Config) {
		c.Hooks = append(c.Hooks, h)
	}
}

// WithPolicy sets the statement policy.
func WithPolicy(p Policy) Option {
	return func(c *Config) {
		c.Policy = p
	}
}

// FileConfig is the YAML form of a Client configuration:
//
//	dialect: postgres
//	naming:
//	  table: snake
//	  column: snake
//	  param: none
//	  pluralize: true
type FileConfig struct {
	Dialect string       `yaml:"dialect"`
	Naming  NamingConfig `yaml:"naming"`
}

// NamingConfig selects named formatting styles. See schema.StyleFunc for
// the accepted names.
type NamingConfig struct {
	Table     string `yaml:"table"`
	Column    string `yaml:"column"`
	Param     string `yaml:"param"`
	Pluralize *bool  `yaml:"pluralize"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sqlkit: read config: %w", err)
	}
	return ParseConfig(bytes.NewReader(data))
}

// ParseConfig decodes a YAML configuration. Unknown fields are rejected.
func ParseConfig(r io.Reader) (*FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("sqlkit: parse config: %w", err)
	}
	if fc.Dialect != "" {
		if _, err := dialect.Get(fc.Dialect); err != nil {
			return nil, fmt.Errorf("sqlkit: invalid config: %w", err)
		}
	}
	return &fc, nil
}

// Options converts the file configuration to client options.
func (fc *FileConfig) Options() ([]Option, error) {
	var opts []Option
	if fc.Dialect != "" {
		opts = append(opts, WithDialect(fc.Dialect))
	}
	styles := []struct {
		name string
		opt  func(func(string) string) Option
	}{
		{fc.Naming.Table, WithTableFormatter},
		{fc.Naming.Column, WithColumnFormatter},
		{fc.Naming.Param, WithParamFormatter},
	}
	for _, s := range styles {
		if s.name == "" {
			continue
		}
		f, err := schema.StyleFunc(s.name)
		if err != nil {
			return nil, fmt.Errorf("sqlkit: invalid config: %w", err)
		}
		opts = append(opts, s.opt(f))
	}
	if p := fc.Naming.Pluralize; p != nil && !*p {
		opts = append(opts, WithPluralizer(schema.Identity))
	}
	return opts, nil
}
