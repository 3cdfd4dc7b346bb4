// Package expr translates boolean predicates into ordered
// (column, operator, value) triples.
//
// Predicates are built either from typed fields:
//
//	var (
//	    Name   = expr.StringField("Name")
//	    Price  = expr.Field[float64]("Price")
//	    Active = expr.BoolField("Active")
//	)
//	p := expr.And(Price.Gt(10), Name.Contains("tea"))
//
// or from the raw node constructors (Col, Const, Cmp, And, Or, Not, Call,
// Convert, Lazy). Translate accepts only:
//
//   - column-vs-constant comparisons (= <> > >= < <= LIKE), with
//     conversions unwrapped on either side
//   - a bare boolean column (col = true) or its negation (col = false)
//   - And/Or of translatable predicates
//   - Equals and Contains method calls on a column
//
// Anything else yields an *UnsupportedExpressionError.
//
// And/Or carry no grouping: triples are emitted in the order written and
// the separators are rendered without parentheses.
package expr
