// Package sqlkit builds parameterized SQL for mapped Go structs and runs it
// on a database/sql style executor.
//
// A Client is bound to one dialect (SQL Server, PostgreSQL, MySQL or
// SQLite). Entity types are mapped once, on first use, to a table and an
// ordered column list; see package schema for the mapping rules.
//
//	drv, err := sql.Open(dialect.MustGet(dialect.Postgres), "postgres", dsn)
//	client, err := sqlkit.New(drv, sqlkit.WithDialect(dialect.Postgres))
//	products := sqlkit.For[Product](client)
//
// Whole-entity operations render fixed statements that are cached per type:
//
//	p, err := products.Get(ctx, 7)
//	id, err := products.InsertKey(ctx, &Product{Name: "Tea"})
//	n, err := products.UpdateEntity(ctx, p)
//
// Fluent operations build a clause chain. Each call returns the next legal
// state, so an UPDATE cannot be executed before its first Set and a join
// cannot be used before its On:
//
//	list, err := products.Select("p").
//		Join(sqlkit.Ref[Category]("c")).On("p.CategoryId", "c.Id").
//		Where("c.Title", "Tea").
//		OrderBy("p.Name").
//		All(ctx)
//
//	n, err := products.Update().
//		Set("Name", "Green tea").
//		Where("Id", 7).
//		Exec(ctx)
//
// Fluent statements are assembled on every call unless a Ticket is given, in
// which case the text is cached under it and only values are re-collected.
//
// Before a statement runs, the configured Policy may reject it and the
// registered Hooks observe it. A Client created with a nil executor only
// renders statements.
package sqlkit
