package sqlkit

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/schema"
)

// Client renders statements for one dialect and runs them on an executor.
// A Client is safe for concurrent use; the fluent builders it hands out
// are not.
type Client struct {
	cfg      Config
	id       string
	exec     dialect.Executor
	dialect  dialect.Dialect
	resolver *schema.Resolver
	builder  *sql.Builder
	cache    statementCache
	log      *slog.Logger
}

// New returns a Client that executes statements on exec. A nil exec gives
// a render-only client: statements can be built and inspected, and every
// executing call returns ErrNoExecutor.
func New(exec dialect.Executor, opts ...Option) (*Client, error) {
	cfg := Config{Dialect: dialect.SQLServer}
	for _, opt := range opts {
		opt(&cfg)
	}
	d, err := dialect.Get(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	cfg.Dialect = d.Name()
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	var bopts []sql.BuilderOption
	if cfg.ParamFormatter != nil {
		bopts = append(bopts, sql.WithParamFormatter(cfg.ParamFormatter))
	}
	return &Client{
		cfg:      cfg,
		id:       uuid.NewString(),
		exec:     exec,
		dialect:  d,
		resolver: schema.NewResolver(d, cfg.Naming),
		builder:  sql.NewBuilder(d, bopts...),
		log:      cfg.Logger.With("dialect", d.Name()),
	}, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.Hooks = append([]Hooks(nil), c.cfg.Hooks...)
	return cfg
}

// ID returns the identifier generated for this client. It is the token of
// events raised without WithToken.
func (c *Client) ID() string { return c.id }

// Dialect returns the client dialect.
func (c *Client) Dialect() dialect.Dialect { return c.dialect }

// Builder returns the statement assembler used by the client.
func (c *Client) Builder() *sql.Builder { return c.builder }

// Resolve returns the metadata of the type of v.
func (c *Client) Resolve(v any) (*schema.Metadata, error) {
	return c.resolver.ResolveValue(v)
}

// Define resolves a struct type built at run time under the given entity
// name, using the client's dialect and naming rules.
func (c *Client) Define(name string, t reflect.Type, desc *schema.Descriptor) (*schema.Metadata, error) {
	return c.resolver.Define(name, t, desc)
}

// CacheStats returns statement cache counters.
func (c *Client) CacheStats() CacheStats { return c.cache.stats() }

// before builds the event for stmt, fires the hooks and then evaluates the
// policy.
func (c *Client) before(ctx context.Context, m *schema.Metadata, op sql.Op, stmt sql.Statement) error {
	token, ok := TokenFromContext(ctx)
	if !ok {
		token = c.id
	}
	ev := Event{
		Token:  token,
		Op:     op,
		Entity: m.Name(),
		Table:  m.Table,
		SQL:    stmt.SQL,
		Params: stmt.Params,
	}
	for _, h := range c.cfg.Hooks {
		h.fire(ctx, ev)
	}
	if c.cfg.Policy != nil {
		if err := c.cfg.Policy.EvalStatement(ctx, ev); err != nil {
			c.log.DebugContext(ctx, "sqlkit: statement rejected", "op", op, "entity", ev.Entity, "err", err)
			return err
		}
	}
	return nil
}

// run executes a statement that returns no rows. Executor errors are
// returned unchanged.
func (c *Client) run(ctx context.Context, m *schema.Metadata, op sql.Op, stmt sql.Statement) (int64, error) {
	if c.exec == nil {
		return 0, ErrNoExecutor
	}
	c.log.DebugContext(ctx, "sqlkit: exec", "op", op, "entity", m.Name(), "sql", stmt.SQL)
	if err := c.before(ctx, m, op, stmt); err != nil {
		return 0, err
	}
	return c.exec.Exec(ctx, stmt.SQL, stmt.Params)
}

// query executes a statement that returns rows. The caller closes them.
func (c *Client) query(ctx context.Context, m *schema.Metadata, op sql.Op, stmt sql.Statement) (dialect.Rows, error) {
	if c.exec == nil {
		return nil, ErrNoExecutor
	}
	c.log.DebugContext(ctx, "sqlkit: query", "op", op, "entity", m.Name(), "sql", stmt.SQL)
	if err := c.before(ctx, m, op, stmt); err != nil {
		return nil, err
	}
	return c.exec.Query(ctx, stmt.SQL, stmt.Params)
}

// template returns the cached whole-entity template of form for m.
func (c *Client) template(m *schema.Metadata, op sql.Op, form string, build func() (*sql.Template, error)) (*sql.Template, error) {
	return c.cache.template(CacheKey{Type: m.Type, Op: op, Form: form}, build)
}

// typeOf returns the reflect.Type of T without requiring a value.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
