package expr

import (
	"errors"
	"fmt"
)

// Sep is a logical separator between two triples.
type Sep string

// Separators.
const (
	SepAnd Sep = "AND"
	SepOr  Sep = "OR"
)

// Triple is one unit of a translated predicate. A separator triple has an
// empty Column and a non-empty Sep; it joins the triples around it.
type Triple struct {
	Column string
	Op     Op
	Value  any
	Sep    Sep
}

// IsSep reports whether t is a separator.
func (t Triple) IsSep() bool { return t.Sep != "" }

// String formats the triple for diagnostics.
func (t Triple) String() string {
	if t.IsSep() {
		return string(t.Sep)
	}
	return fmt.Sprintf("(%s %s %v)", t.Column, t.Op, t.Value)
}

// Compare returns a comparison triple.
func Compare(column string, op Op, value any) Triple {
	return Triple{Column: column, Op: op, Value: value}
}

// Separator returns a separator triple.
func Separator(sep Sep) Triple { return Triple{Sep: sep} }

// ErrUnsupported is matched by UnsupportedExpressionError values.
var ErrUnsupported = errors.New("expr: unsupported expression")

// UnsupportedExpressionError reports an expression node outside the
// translatable set.
type UnsupportedExpressionError struct {
	Expr   Expr
	Reason string
}

// Error returns the error string.
func (e *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("expr: unsupported expression %v: %s", e.Expr, e.Reason)
}

// Is reports whether target is ErrUnsupported.
func (e *UnsupportedExpressionError) Is(target error) bool { return target == ErrUnsupported }

func unsupported(e Expr, format string, args ...any) error {
	return &UnsupportedExpressionError{Expr: e, Reason: fmt.Sprintf(format, args...)}
}

// Translate flattens a predicate into triples, left to right.
//
// And/Or nodes emit their left side, a separator, then their right side.
// No grouping is recorded, so mixed And/Or predicates are folded in the
// order written: Or(a, And(b, c)) and And(Or(a, b), c) both translate to
// a OR b AND c.
func Translate(e Expr) ([]Triple, error) {
	var out []Triple
	if err := translate(e, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func translate(e Expr, out *[]Triple) error {
	switch n := e.(type) {
	case Logical:
		if n.Sep != SepAnd && n.Sep != SepOr {
			return unsupported(e, "unknown separator %q", n.Sep)
		}
		if err := translate(n.L, out); err != nil {
			return err
		}
		*out = append(*out, Separator(n.Sep))
		return translate(n.R, out)
	case Binary:
		if !n.Op.Valid() {
			return unsupported(e, "unknown operator %q", n.Op)
		}
		col, ok := member(n.L)
		if !ok {
			return unsupported(e, "left operand must be a column")
		}
		v, err := value(n.R)
		if err != nil {
			return err
		}
		*out = append(*out, Compare(col, n.Op, v))
		return nil
	case Member:
		*out = append(*out, Compare(n.Name, OpEQ, true))
		return nil
	case Conversion:
		if col, ok := member(n); ok {
			*out = append(*out, Compare(col, OpEQ, true))
			return nil
		}
		return unsupported(e, "conversion of a non-column predicate")
	case Negation:
		col, ok := member(n.X)
		if !ok {
			return unsupported(e, "only columns can be negated")
		}
		*out = append(*out, Compare(col, OpEQ, false))
		return nil
	case MethodCall:
		col, ok := member(n.Recv)
		if !ok {
			return unsupported(e, "method receiver must be a column")
		}
		v, err := value(n.Arg)
		if err != nil {
			return err
		}
		switch n.Method {
		case "Equals":
			*out = append(*out, Compare(col, OpEQ, v))
		case "Contains":
			if v == nil {
				return unsupported(e, "Contains requires a non-nil argument")
			}
			*out = append(*out, Compare(col, OpLike, fmt.Sprintf("%%%v%%", v)))
		default:
			return unsupported(e, "method %q", n.Method)
		}
		return nil
	case nil:
		return unsupported(e, "nil expression")
	default:
		return unsupported(e, "node %T", e)
	}
}

// member unwraps conversions and returns the referenced column.
func member(e Expr) (string, bool) {
	for {
		switch n := e.(type) {
		case Conversion:
			e = n.X
		case Member:
			return n.Name, n.Name != ""
		default:
			return "", false
		}
	}
}

// value unwraps conversions and evaluates constants and closures.
func value(e Expr) (any, error) {
	for {
		switch n := e.(type) {
		case Conversion:
			e = n.X
		case Constant:
			return n.Value, nil
		case Closure:
			if n.Fn == nil {
				return nil, unsupported(e, "nil closure")
			}
			return n.Fn(), nil
		default:
			return nil, unsupported(e, "right operand must be a constant")
		}
	}
}
