package expr

// Field is a typed column reference. Comparisons accept only values of the
// column's Go type.
//
//	var Price = expr.Field[float64]("Price")
//	q.WhereExpr(Price.Gt(10))
type Field[V any] string

// Name returns the column name.
func (f Field[V]) Name() string { return string(f) }

// Col returns the column as an expression node.
func (f Field[V]) Col() Expr { return Col(string(f)) }

// Eq returns f = v.
func (f Field[V]) Eq(v V) Expr { return Eq(f.Col(), Const(v)) }

// Neq returns f <> v.
func (f Field[V]) Neq(v V) Expr { return Neq(f.Col(), Const(v)) }

// Gt returns f > v.
func (f Field[V]) Gt(v V) Expr { return Gt(f.Col(), Const(v)) }

// Gte returns f >= v.
func (f Field[V]) Gte(v V) Expr { return Gte(f.Col(), Const(v)) }

// Lt returns f < v.
func (f Field[V]) Lt(v V) Expr { return Lt(f.Col(), Const(v)) }

// Lte returns f <= v.
func (f Field[V]) Lte(v V) Expr { return Lte(f.Col(), Const(v)) }

// Equals is the method-call form of Eq.
func (f Field[V]) Equals(v V) Expr { return Call(f.Col(), "Equals", Const(v)) }

// EqFunc compares f with the result of fn, evaluated at translation time.
func (f Field[V]) EqFunc(fn func() V) Expr {
	return Eq(f.Col(), Lazy(func() any { return fn() }))
}

// StringField is a typed string column.
type StringField string

// Name returns the column name.
func (f StringField) Name() string { return string(f) }

// Col returns the column as an expression node.
func (f StringField) Col() Expr { return Col(string(f)) }

// Eq returns f = v.
func (f StringField) Eq(v string) Expr { return Eq(f.Col(), Const(v)) }

// Neq returns f <> v.
func (f StringField) Neq(v string) Expr { return Neq(f.Col(), Const(v)) }

// Equals is the method-call form of Eq.
func (f StringField) Equals(v string) Expr { return Call(f.Col(), "Equals", Const(v)) }

// Contains returns f LIKE '%v%'.
func (f StringField) Contains(v string) Expr { return Call(f.Col(), "Contains", Const(v)) }

// Like returns f LIKE pattern.
func (f StringField) Like(pattern string) Expr { return Cmp(OpLike, f.Col(), Const(pattern)) }

// BoolField is a typed boolean column.
type BoolField string

// Name returns the column name.
func (f BoolField) Name() string { return string(f) }

// IsTrue returns f = true.
func (f BoolField) IsTrue() Expr { return Col(string(f)) }

// IsFalse returns f = false.
func (f BoolField) IsFalse() Expr { return Not(Col(string(f))) }
