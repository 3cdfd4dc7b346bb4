package sqlkit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/privacy"
)

// mockClient returns a Postgres client backed by sqlmock. Statements are
// matched exactly, after rebinding.
func mockClient(t *testing.T, opts ...sqlkit.Option) (*sqlkit.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	drv := sql.OpenDB(dialect.MustGet(dialect.Postgres), db)
	c, err := sqlkit.New(drv, append([]sqlkit.Option{sqlkit.WithDialect(dialect.Postgres)}, opts...)...)
	require.NoError(t, err)
	return c, mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Id", "Name", "CategoryId"})
}

func TestNew(t *testing.T) {
	c, err := sqlkit.New(nil)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLServer, c.Dialect().Name())
	assert.Equal(t, dialect.SQLServer, c.Config().Dialect)
	_, err = uuid.Parse(c.ID())
	assert.NoError(t, err)

	other, err := sqlkit.New(nil)
	require.NoError(t, err)
	assert.NotEqual(t, c.ID(), other.ID())

	_, err = sqlkit.New(nil, sqlkit.WithDialect("oracle"))
	assert.Error(t, err)

	m, err := c.Resolve(&Product{})
	require.NoError(t, err)
	assert.Equal(t, "Products", m.Table)
}

func TestNoExecutor(t *testing.T) {
	c := render(t, dialect.SQLite)
	ctx := context.Background()
	_, err := sqlkit.For[Product](c).All(ctx)
	assert.ErrorIs(t, err, sqlkit.ErrNoExecutor)
	_, err = sqlkit.For[Product](c).Update().Set("Name", "x").Exec(ctx)
	assert.ErrorIs(t, err, sqlkit.ErrNoExecutor)
	_, err = sqlkit.For[Product](c).Select().Count(ctx)
	assert.ErrorIs(t, err, sqlkit.ErrNoExecutor)
}

func TestClientGet(t *testing.T) {
	c, mock := mockClient(t)
	ctx := context.Background()
	products := sqlkit.For[Product](c)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products WHERE Id = $1;").
		WithArgs(int64(1)).
		WillReturnRows(productRows().AddRow(int64(1), "Tea", int64(2)))
	p, err := products.Get(ctx, int64(1))
	require.NoError(t, err)
	assert.Equal(t, &Product{Id: 1, Name: "Tea", CategoryId: 2}, p)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products WHERE Id = $1;").
		WithArgs(int64(5)).
		WillReturnRows(productRows())
	_, err = products.Get(ctx, int64(5))
	assert.True(t, sqlkit.IsNotFound(err))

	mock.ExpectQuery("SELECT OrderId, LineNo, Qty FROM OrderLines WHERE OrderId = $1 AND LineNo = $2;").
		WithArgs(int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"OrderId", "LineNo", "Qty"}).AddRow(int64(3), int64(1), int64(9)))
	line, err := sqlkit.For[OrderLine](c).GetByKeys(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, &OrderLine{OrderId: 3, LineNo: 1, Qty: 9}, line)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientQueries(t *testing.T) {
	c, mock := mockClient(t)
	ctx := context.Background()
	products := sqlkit.For[Product](c)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products;").
		WillReturnRows(productRows().AddRow(int64(1), "a", int64(1)).AddRow(int64(2), "b", int64(1)))
	all, err := products.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products WHERE CategoryId = $1 ORDER BY Name ASC").
		WithArgs(int64(1)).
		WillReturnRows(productRows().AddRow(int64(1), "a", int64(1)).AddRow(int64(2), "b", int64(1)))
	list, err := products.Select().Where("CategoryId", int64(1)).OrderBy("Name").All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Product{{Id: 1, Name: "a", CategoryId: 1}, {Id: 2, Name: "b", CategoryId: 1}}, list)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products WHERE Name = $1").
		WithArgs("a").
		WillReturnRows(productRows().AddRow(int64(1), "a", int64(1)).AddRow(int64(3), "a", int64(2)))
	first, err := products.Select().Where("Name", "a").First(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Id)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products WHERE Name = $1").
		WithArgs("a").
		WillReturnRows(productRows().AddRow(int64(1), "a", int64(1)).AddRow(int64(3), "a", int64(2)))
	_, err = products.Select().Where("Name", "a").Only(ctx)
	assert.True(t, sqlkit.IsNotSingular(err))

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products WHERE Name = $1").
		WithArgs("z").
		WillReturnRows(productRows())
	_, err = products.Select().Where("Name", "z").Only(ctx)
	assert.True(t, sqlkit.IsNotFound(err))

	mock.ExpectQuery("SELECT COUNT(*) FROM Products WHERE CategoryId = $1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))
	n, err := products.Select().Where("CategoryId", int64(1)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	mock.ExpectQuery("SELECT * FROM Products WHERE Name LIKE $1 LIMIT 1").
		WithArgs("T%").
		WillReturnRows(productRows().AddRow(int64(4), "Tea", int64(1)))
	raw, err := products.Raw(ctx, "SELECT * FROM Products WHERE Name LIKE @pattern LIMIT 1", sql.Param{Name: "pattern", Value: "T%"})
	require.NoError(t, err)
	assert.Equal(t, []Product{{Id: 4, Name: "Tea", CategoryId: 1}}, raw)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientInsert(t *testing.T) {
	c, mock := mockClient(t)
	ctx := context.Background()
	products := sqlkit.For[Product](c)

	mock.ExpectExec("INSERT INTO Products (Name, CategoryId) VALUES ($1, $2);").
		WithArgs("Tea", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := products.Insert(ctx, &Product{Name: "Tea", CategoryId: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectQuery("INSERT INTO Products (Name, CategoryId) VALUES ($1, $2) RETURNING Id;").
		WithArgs("Tea", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(int64(42)))
	p := &Product{Name: "Tea", CategoryId: 2}
	key, err := products.InsertKey(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), key)
	assert.Equal(t, int64(42), p.Id)

	mock.ExpectExec("INSERT INTO Products (Name, CategoryId) SELECT $1, $2 UNION ALL SELECT $3, $4 UNION ALL SELECT $5, $6;").
		WithArgs("a", int64(1), "b", int64(1), "c", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err = products.InsertUnion(ctx, []Product{
		{Name: "a", CategoryId: 1},
		{Name: "b", CategoryId: 1},
		{Name: "c", CategoryId: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientUpdateDelete(t *testing.T) {
	c, mock := mockClient(t)
	ctx := context.Background()
	products := sqlkit.For[Product](c)

	mock.ExpectExec("UPDATE Products SET Name = $1 WHERE Id = $2").
		WithArgs("X", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := products.Update().Set("Name", "X").Where("Id", int64(1)).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec("UPDATE Products SET Name = $1, CategoryId = $2 WHERE Id = $3;").
		WithArgs("Tea", int64(2), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err = products.UpdateEntity(ctx, &Product{Id: 9, Name: "Tea", CategoryId: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec("DELETE FROM Products WHERE Id = $1;").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = products.DeleteEntity(ctx, &Product{Id: 9})
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM Products WHERE Id = $1;").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = products.DeleteByKey(ctx, int64(10))
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec("DELETE FROM OrderLines WHERE OrderId = $1 AND LineNo = $2;").
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = sqlkit.For[OrderLine](c).DeleteByKeys(ctx, 3, 1)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM Products WHERE CategoryId = $1 OR Name = $2").
		WithArgs(int64(4), "x").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err = products.Delete().Where("CategoryId", int64(4)).OrWhere("Name", "x").Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientExecutorError(t *testing.T) {
	c, mock := mockClient(t)
	boom := errors.New("boom")
	mock.ExpectExec("DELETE FROM Products WHERE Id = $1;").
		WithArgs(int64(1)).
		WillReturnError(boom)
	_, err := sqlkit.For[Product](c).DeleteByKey(context.Background(), int64(1))
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientHooks(t *testing.T) {
	var (
		events []sqlkit.Event
		order  []string
	)
	record := func(name string) sqlkit.Hook {
		return func(_ context.Context, ev sqlkit.Event) {
			order = append(order, name)
			events = append(events, ev)
		}
	}
	c, mock := mockClient(t,
		sqlkit.WithHooks(sqlkit.Hooks{BeforeSelect: record("select"), BeforeUpdate: record("update")}),
		sqlkit.WithHooks(sqlkit.Hooks{BeforeUpdate: record("update2")}),
	)
	products := sqlkit.For[Product](c)

	mock.ExpectExec("UPDATE Products SET Name = $1 WHERE Id = $2").
		WithArgs("X", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ctx := sqlkit.WithToken(context.Background(), "req-1")
	_, err := products.Update().Set("Name", "X").Where("Id", int64(1)).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "update2"}, order)
	ev := events[0]
	assert.Equal(t, "req-1", ev.Token)
	assert.Equal(t, sql.OpUpdate, ev.Op)
	assert.Equal(t, "Product", ev.Entity)
	assert.Equal(t, "Products", ev.Table)
	assert.Equal(t, "UPDATE Products SET Name = @Name WHERE Id = @Id", ev.SQL)
	assert.Equal(t, map[string]any{"Name": "X", "Id": int64(1)}, ev.Map())

	// Counting is reported to BeforeSelect; the default token is the client ID.
	mock.ExpectQuery("SELECT COUNT(*) FROM Products").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	_, err = products.Select().Count(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, sql.OpCount, events[2].Op)
	assert.Equal(t, c.ID(), events[2].Token)

	// Hooks fire before execution, so a failing statement is still observed.
	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products;").WillReturnError(errors.New("down"))
	_, err = products.All(context.Background())
	assert.Error(t, err)
	assert.Len(t, events, 4)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientPolicy(t *testing.T) {
	var fired int
	c, mock := mockClient(t,
		sqlkit.WithPolicy(privacy.Policy{privacy.ReadOnly()}),
		sqlkit.WithHooks(sqlkit.Hooks{BeforeDelete: func(context.Context, sqlkit.Event) { fired++ }}),
	)
	// A denied statement is observed by hooks but never executed.
	_, err := sqlkit.For[Product](c).DeleteByKey(context.Background(), int64(1))
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Equal(t, 1, fired)

	mock.ExpectQuery("SELECT Id, Name, CategoryId FROM Products;").WillReturnRows(productRows())
	_, err = sqlkit.For[Product](c).All(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	veto := errors.New("veto")
	c, _ = mockClient(t, sqlkit.WithPolicy(sqlkit.PolicyFunc(func(context.Context, sqlkit.Event) error { return veto })))
	_, err = sqlkit.For[Product](c).All(context.Background())
	assert.Equal(t, veto, err)
}

func TestClientLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, mock := mockClient(t, sqlkit.WithLogger(logger))
	mock.ExpectExec("DELETE FROM Products WHERE Id = $1;").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := sqlkit.For[Product](c).DeleteByKey(context.Background(), int64(1))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "dialect=postgres")
	assert.Contains(t, out, "op=delete")
	assert.Contains(t, out, `sql="DELETE FROM Products WHERE Id = @Id;"`)
}
