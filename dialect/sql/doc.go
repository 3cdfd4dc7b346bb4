// Package sql assembles SQL text for a single dialect and executes it on
// database/sql handles.
//
// # Whole-entity templates
//
// Statements whose text depends only on the entity type are produced as
// Templates and cached by the caller:
//
//	b := sql.NewBuilder(dialect.MustGet(dialect.SQLServer))
//	m, _ := schema.For[Product](resolver)
//	t, _ := b.Update(m)
//	// UPDATE Products SET Name = @Name WHERE Id = @Id;
//	stmt, _ := t.BindEntity(m, product)
//
// # Clause chains
//
// Fluent queries are recorded as nodes of a Chain. Each node keeps the index
// of its predecessor, so a chain is walked from its tail back to the From
// root. Assemble renders one path in a single pass:
//
//	c := sql.NewChain()
//	tail := c.Root(sql.Node{Kind: sql.KindFrom, Meta: m, Alias: "p"})
//	tail = c.Append(tail, sql.Node{Kind: sql.KindWhere, Triples: triples})
//	stmt, _ := b.Assemble(sql.OpSelect, c, tail)
//
// Runs of Where, Having, Set and OrderBy nodes collapse into one clause.
// Parameters are named after their column; a name used twice in one
// statement gets a _1, _2, ... suffix.
//
// # Execution
//
// Driver adapts a *sql.DB to dialect.Executor. Named parameters are rebound
// to the placeholder style of the target driver:
//
//	drv := sql.OpenDB(dialect.MustGet(dialect.Postgres), db)
//	n, err := drv.Exec(ctx, stmt.SQL, stmt.Params)
//
// StatsExecutor and DebugExecutor wrap any executor with statistics and
// logging.
package sql
