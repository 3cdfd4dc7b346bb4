package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sqlserver", SQLServer},
		{"mssql", SQLServer},
		{"Postgres", Postgres},
		{"postgresql", Postgres},
		{"mysql", MySQL},
		{"sqlite3", SQLite},
		{" sqlite ", SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Get(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := Get("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.Panics(t, func() { MustGet("oracle") })
}

func TestQuoteIfNeeded(t *testing.T) {
	tests := []struct {
		dialect string
		ident   string
		want    string
	}{
		{SQLServer, "Order", `"Order"`},
		{Postgres, "Order", `"Order"`},
		{SQLite, "Order", `"Order"`},
		{MySQL, "Order", "`Order`"},
		{SQLServer, "First Name", `"First Name"`},
		{Postgres, "First Name", `"First Name"`},
		{SQLite, "First Name", `"First Name"`},
		{MySQL, "First Name", "`First Name`"},
		{Postgres, "user", `"user"`},
		{Postgres, "Name", "Name"},
		{MySQL, "Name", "Name"},
		{MySQL, "`Order`", "`Order`"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, MustGet(tt.dialect).QuoteIfNeeded(tt.ident))
		})
	}
}

func TestQuoteEscapes(t *testing.T) {
	assert.Equal(t, `"a""b"`, MustGet(SQLite).Quote(`a"b`))
	assert.Equal(t, `"a""b"`, MustGet(Postgres).Quote(`a"b`))
	assert.Equal(t, "`a``b`", MustGet(MySQL).Quote("a`b"))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "Order", Unquote(`"Order"`))
	assert.Equal(t, "Order", Unquote("`Order`"))
	assert.Equal(t, "Order", Unquote("[Order]"))
	assert.Equal(t, `a"b`, Unquote(`"a""b"`))
	assert.Equal(t, "Name", Unquote("Name"))
	assert.Equal(t, `"`, Unquote(`"`))
}

func TestKeyTrailer(t *testing.T) {
	tests := []struct {
		dialect string
		clause  string
		inline  bool
	}{
		{SQLServer, "SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS Id", false},
		{Postgres, "RETURNING Id", true},
		{MySQL, "SELECT LAST_INSERT_ID() AS Id", false},
		{SQLite, "SELECT last_insert_rowid() AS Id", false},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			clause, inline := MustGet(tt.dialect).KeyTrailer("Id")
			assert.Equal(t, tt.clause, clause)
			assert.Equal(t, tt.inline, inline)
		})
	}
	clause, _ := MustGet(MySQL).KeyTrailer("Key")
	assert.Equal(t, "SELECT LAST_INSERT_ID() AS `Key`", clause)
}

func TestAliasSeparator(t *testing.T) {
	for _, name := range Names {
		want := "__"
		if name == MySQL {
			want = "."
		}
		assert.Equal(t, want, MustGet(name).AliasSeparator(), name)
	}
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("select"))
	assert.True(t, IsReserved("Group"))
	assert.False(t, IsReserved("Name"))
	assert.False(t, IsReserved(""))
}
