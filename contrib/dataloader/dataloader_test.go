package dataloader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/contrib/dataloader"
	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql"
)

type Product struct {
	Id         int64
	Name       string
	CategoryId int64
}

func products(t *testing.T) *sqlkit.Table[Product] {
	t.Helper()
	drv, err := sql.Open(dialect.MustGet(dialect.SQLite), "sqlite", ":memory:")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	ctx := context.Background()
	_, err = drv.Exec(ctx, "CREATE TABLE Products (Id INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL, CategoryId INTEGER NOT NULL)", nil)
	require.NoError(t, err)
	c, err := sqlkit.New(drv, sqlkit.WithDialect(dialect.SQLite))
	require.NoError(t, err)
	tbl := sqlkit.For[Product](c)
	_, err = tbl.InsertUnion(ctx, []Product{
		{Name: "Sencha", CategoryId: 1},
		{Name: "Oolong", CategoryId: 1},
		{Name: "Mocha", CategoryId: 2},
	})
	require.NoError(t, err)
	return tbl
}

func TestLoad(t *testing.T) {
	tbl := products(t)
	id := func(p *Product) int64 { return p.Id }

	got, errs := dataloader.Load(context.Background(), tbl, "Id", []int64{3, 9, 1, 3}, id)
	require.Len(t, got, 4)
	require.Len(t, errs, 4)
	assert.Equal(t, "Mocha", got[0].Name)
	assert.NoError(t, errs[0])
	assert.Nil(t, got[1])
	assert.True(t, sqlkit.IsNotFound(errs[1]))
	assert.Equal(t, "Sencha", got[2].Name)
	assert.Equal(t, "Mocha", got[3].Name)

	got, errs = dataloader.Load(context.Background(), tbl, "Id", nil, id)
	assert.Nil(t, got)
	assert.Nil(t, errs)
}

func TestLoadError(t *testing.T) {
	tbl := products(t)
	_, errs := dataloader.Load(context.Background(), tbl, "Missing", []int64{1, 2}, func(p *Product) int64 { return p.Id })
	require.Len(t, errs, 2)
	assert.Error(t, errs[0])
	assert.Equal(t, errs[0], errs[1])
}

func TestLoadGroups(t *testing.T) {
	tbl := products(t)
	groups, err := dataloader.LoadGroups(context.Background(), tbl, "CategoryId", []int64{2, 5, 1},
		func(p *Product) int64 { return p.CategoryId })
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Len(t, groups[0], 1)
	assert.Equal(t, "Mocha", groups[0][0].Name)
	assert.Empty(t, groups[1])
	assert.Len(t, groups[2], 2)
}

func TestOrderByKeys(t *testing.T) {
	type entity struct {
		ID   int
		Name string
	}
	keyFn := func(e *entity) int { return e.ID }

	got, errs := dataloader.OrderByKeys([]int{1, 2, 3}, []*entity{{3, "c"}, {1, "a"}}, keyFn)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Nil(t, got[1])
	assert.Error(t, errs[1])
	assert.Equal(t, "c", got[2].Name)
	assert.NoError(t, errs[2])

	grouped := dataloader.GroupByKey([]*entity{{1, "a"}, {1, "b"}, {2, "c"}}, func(e *entity) int { return e.ID })
	assert.Len(t, grouped[1], 2)
	assert.Equal(t, [][]*entity{grouped[2], nil}, dataloader.OrderGroupsByKeys([]int{2, 7}, grouped))
}
