package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateAnd(t *testing.T) {
	got, err := Translate(And(Eq(Col("A"), Const(1)), Eq(Col("B"), Const(2))))
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		Compare("A", OpEQ, 1),
		Separator(SepAnd),
		Compare("B", OpEQ, 2),
	}, got)
}

func TestTranslateComparisons(t *testing.T) {
	tests := []struct {
		name string
		in   Expr
		want Triple
	}{
		{"eq", Eq(Col("A"), Const(1)), Compare("A", OpEQ, 1)},
		{"neq", Neq(Col("A"), Const(1)), Compare("A", OpNEQ, 1)},
		{"gt", Gt(Col("A"), Const(1)), Compare("A", OpGT, 1)},
		{"gte", Gte(Col("A"), Const(1)), Compare("A", OpGTE, 1)},
		{"lt", Lt(Col("A"), Const(1)), Compare("A", OpLT, 1)},
		{"lte", Lte(Col("A"), Const(1)), Compare("A", OpLTE, 1)},
		{"convert left", Eq(Convert("int64", Col("A")), Const(int64(1))), Compare("A", OpEQ, int64(1))},
		{"convert right", Eq(Col("A"), Convert("int", Const(1))), Compare("A", OpEQ, 1)},
		{"bool member", Col("Active"), Compare("Active", OpEQ, true)},
		{"converted bool member", Convert("bool", Col("Active")), Compare("Active", OpEQ, true)},
		{"negation", Not(Col("Active")), Compare("Active", OpEQ, false)},
		{"equals", Call(Col("Name"), "Equals", Const("x")), Compare("Name", OpEQ, "x")},
		{"contains", Call(Col("Name"), "Contains", Const("ab")), Compare("Name", OpLike, "%ab%")},
		{"closure", Eq(Col("A"), Lazy(func() any { return 40 + 2 })), Compare("A", OpEQ, 42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, []Triple{tt.want}, got)
		})
	}
}

func TestTranslateClosureEvaluatedAtTranslation(t *testing.T) {
	n := 1
	p := Eq(Col("A"), Lazy(func() any { return n }))
	n = 5
	got, err := Translate(p)
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Value)
}

// Mixed And/Or is folded in written order without grouping.
func TestTranslateLeftToRightFolding(t *testing.T) {
	a := Eq(Col("A"), Const(1))
	b := Eq(Col("B"), Const(2))
	c := Eq(Col("C"), Const(3))
	want := []Triple{
		Compare("A", OpEQ, 1),
		Separator(SepOr),
		Compare("B", OpEQ, 2),
		Separator(SepAnd),
		Compare("C", OpEQ, 3),
	}
	got, err := Translate(And(Or(a, b), c))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = Translate(Or(a, And(b, c)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTranslateUnsupported(t *testing.T) {
	tests := []struct {
		name string
		in   Expr
	}{
		{"nil", nil},
		{"column vs column", Eq(Col("A"), Col("B"))},
		{"constant left", Eq(Const(1), Col("A"))},
		{"constant predicate", Const(true)},
		{"negated comparison", Not(Eq(Col("A"), Const(1)))},
		{"unknown method", Call(Col("Name"), "StartsWith", Const("a"))},
		{"method on constant", Call(Const("x"), "Equals", Const("a"))},
		{"contains nil", Call(Col("Name"), "Contains", Const(nil))},
		{"bad operator", Cmp(Op("~"), Col("A"), Const(1))},
		{"nil closure", Eq(Col("A"), Closure{})},
		{"bad separator", Logical{Sep: "XOR", L: Col("A"), R: Col("B")}},
		{"nested unsupported", And(Col("A"), Eq(Col("B"), Col("C")))},
		{"converted comparison", Convert("bool", Eq(Col("A"), Const(1)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.in)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrUnsupported))
			var uerr *UnsupportedExpressionError
			assert.True(t, errors.As(err, &uerr))
		})
	}
}

func TestTypedFields(t *testing.T) {
	var (
		price  = Field[float64]("Price")
		name   = StringField("Name")
		active = BoolField("Active")
	)
	got, err := Translate(Or(And(price.Gte(10), name.Contains("tea")), active.IsFalse()))
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		Compare("Price", OpGTE, 10.0),
		Separator(SepAnd),
		Compare("Name", OpLike, "%tea%"),
		Separator(SepOr),
		Compare("Active", OpEQ, false),
	}, got)

	got, err = Translate(And(name.Like("t%"), active.IsTrue()))
	require.NoError(t, err)
	assert.Equal(t, Compare("Name", OpLike, "t%"), got[0])
	assert.Equal(t, Compare("Active", OpEQ, true), got[2])

	id := Field[int]("Id")
	got, err = Translate(id.EqFunc(func() int { return 7 }))
	require.NoError(t, err)
	assert.Equal(t, []Triple{Compare("Id", OpEQ, 7)}, got)
	assert.Equal(t, "Price", price.Name())
}

func TestTripleString(t *testing.T) {
	assert.Equal(t, "AND", Separator(SepAnd).String())
	assert.Equal(t, "(A = 1)", Compare("A", OpEQ, 1).String())
	assert.Equal(t, "((A = 1) AND Active)", And(Eq(Col("A"), Const(1)), Col("Active")).String())
}
