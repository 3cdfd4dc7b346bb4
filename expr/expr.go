package expr

import "fmt"

// Expr is a node of a predicate expression. The node set is closed: only
// the constructors in this package produce values Translate accepts.
type Expr interface {
	fmt.Stringer
	node()
}

// Op is a comparison operator.
type Op string

// Comparison operators.
const (
	OpEQ   Op = "="
	OpNEQ  Op = "<>"
	OpGT   Op = ">"
	OpGTE  Op = ">="
	OpLT   Op = "<"
	OpLTE  Op = "<="
	OpLike Op = "LIKE"
)

// Valid reports whether op is a known comparison operator.
func (op Op) Valid() bool {
	switch op {
	case OpEQ, OpNEQ, OpGT, OpGTE, OpLT, OpLTE, OpLike:
		return true
	}
	return false
}

type (
	// Member references a column.
	Member struct{ Name string }
	// Constant is a literal value.
	Constant struct{ Value any }
	// Closure is a value computed when the expression is translated.
	Closure struct{ Fn func() any }
	// Conversion is a unary type conversion around another node. It is
	// transparent to translation.
	Conversion struct {
		Type string
		X    Expr
	}
	// Binary compares two operands.
	Binary struct {
		Op   Op
		L, R Expr
	}
	// Logical joins two predicates with AND or OR.
	Logical struct {
		Sep  Sep
		L, R Expr
	}
	// Negation is a logical NOT.
	Negation struct{ X Expr }
	// MethodCall calls a method on a member, e.g. Name.Contains("x").
	MethodCall struct {
		Recv   Expr
		Method string
		Arg    Expr
	}
)

func (Member) node()     {}
func (Constant) node()   {}
func (Closure) node()    {}
func (Conversion) node() {}
func (Binary) node()     {}
func (Logical) node()    {}
func (Negation) node()   {}
func (MethodCall) node() {}

func (e Member) String() string     { return e.Name }
func (e Constant) String() string   { return fmt.Sprintf("%#v", e.Value) }
func (e Closure) String() string    { return "func()" }
func (e Conversion) String() string { return fmt.Sprintf("%s(%s)", e.Type, e.X) }
func (e Binary) String() string     { return fmt.Sprintf("(%s %s %s)", e.L, e.Op, e.R) }
func (e Logical) String() string    { return fmt.Sprintf("(%s %s %s)", e.L, e.Sep, e.R) }
func (e Negation) String() string   { return fmt.Sprintf("!%s", e.X) }
func (e MethodCall) String() string { return fmt.Sprintf("%s.%s(%s)", e.Recv, e.Method, e.Arg) }

// Col references the named column.
func Col(name string) Expr { return Member{Name: name} }

// Const wraps a literal value.
func Const(v any) Expr { return Constant{Value: v} }

// Lazy wraps a function evaluated at translation time.
func Lazy(fn func() any) Expr { return Closure{Fn: fn} }

// Convert wraps x in a type conversion named typ.
func Convert(typ string, x Expr) Expr { return Conversion{Type: typ, X: x} }

// Cmp compares l and r with op.
func Cmp(op Op, l, r Expr) Expr { return Binary{Op: op, L: l, R: r} }

// Eq returns l = r.
func Eq(l, r Expr) Expr { return Cmp(OpEQ, l, r) }

// Neq returns l <> r.
func Neq(l, r Expr) Expr { return Cmp(OpNEQ, l, r) }

// Gt returns l > r.
func Gt(l, r Expr) Expr { return Cmp(OpGT, l, r) }

// Gte returns l >= r.
func Gte(l, r Expr) Expr { return Cmp(OpGTE, l, r) }

// Lt returns l < r.
func Lt(l, r Expr) Expr { return Cmp(OpLT, l, r) }

// Lte returns l <= r.
func Lte(l, r Expr) Expr { return Cmp(OpLTE, l, r) }

// And joins l and r with AND.
func And(l, r Expr) Expr { return Logical{Sep: SepAnd, L: l, R: r} }

// Or joins l and r with OR.
func Or(l, r Expr) Expr { return Logical{Sep: SepOr, L: l, R: r} }

// Not negates x.
func Not(x Expr) Expr { return Negation{X: x} }

// Call invokes method on recv with a single argument.
func Call(recv Expr, method string, arg Expr) Expr {
	return MethodCall{Recv: recv, Method: method, Arg: arg}
}
