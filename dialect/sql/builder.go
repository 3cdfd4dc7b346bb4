package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/expr"
)

// Op is the kind of statement to assemble.
type Op uint8

// Statement kinds.
const (
	OpSelect Op = iota + 1
	OpInsert
	OpUpdate
	OpDelete
	OpCount
)

func (op Op) String() string {
	switch op {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpCount:
		return "count"
	default:
		return "op(" + strconv.Itoa(int(op)) + ")"
	}
}

// ErrArgument is matched by ArgumentError values.
var ErrArgument = errors.New("dialect/sql: invalid argument")

// ArgumentError reports a missing or blank required argument.
type ArgumentError struct {
	Arg string
	Msg string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("dialect/sql: argument %s: %s", e.Arg, e.Msg)
}

// Is reports whether target is ErrArgument.
func (e *ArgumentError) Is(target error) bool { return target == ErrArgument }

// NewArgumentError returns an ArgumentError for arg.
func NewArgumentError(arg, msg string) *ArgumentError {
	return &ArgumentError{Arg: arg, Msg: msg}
}

// Builder assembles SQL text for a single dialect. A Builder holds no
// per-statement state and is safe for concurrent use.
type Builder struct {
	dialect     dialect.Dialect
	paramFormat func(string) string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithParamFormatter post-processes every derived parameter name.
func WithParamFormatter(f func(string) string) BuilderOption {
	return func(b *Builder) {
		b.paramFormat = f
	}
}

// NewBuilder returns a Builder for d.
func NewBuilder(d dialect.Dialect, opts ...BuilderOption) *Builder {
	b := &Builder{dialect: d}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dialect returns the builder dialect.
func (b *Builder) Dialect() dialect.Dialect { return b.dialect }

// shape is what a single backward walk over a chain learns.
type shape struct {
	root     *Node
	join     bool
	distinct bool
	hasTop   bool
	top      int
	paged    bool
	grouped  bool
	alias    string
}

// limited reports whether the chain restricts the rows it returns.
func (s shape) limited() bool { return s.hasTop || s.paged }

// inspect walks tail to root once. The alias of the primary type is taken
// from the node closest to tail that introduced it.
func (b *Builder) inspect(c *Chain, tail int) (shape, error) {
	var s shape
	for i := tail; i >= 0; i = c.nodes[i].Prev {
		n := &c.nodes[i]
		switch n.Kind {
		case KindJoin:
			s.join = true
		case KindTop:
			if !s.hasTop {
				s.hasTop, s.top = true, n.N
			}
		case KindLimit, KindOffset, KindFetch:
			s.paged = true
		case KindGroupBy:
			s.grouped = true
		case KindDistinct:
			s.distinct = true
		}
		if n.Prev < 0 {
			s.root = n
		}
	}
	if s.root == nil || s.root.Kind != KindFrom {
		return s, NewArgumentError("chain", "must start with a From node")
	}
	primary := s.root.Meta
	for i := tail; i >= 0 && primary != nil; i = c.nodes[i].Prev {
		n := &c.nodes[i]
		if (n.Kind == KindFrom || n.Kind == KindJoin) && n.Meta != nil && n.Meta.Type == primary.Type {
			s.alias = n.Alias
			break
		}
	}
	return s, nil
}

// Assemble renders the chain ending at tail as a statement of kind op.
// When columns is non-empty it replaces the selected column list verbatim.
// The returned SQL has no terminating semicolon.
//
// OpCount drops ORDER BY. A chain with DISTINCT, GROUP BY, TOP or paging
// is counted as a derived table, so the count matches the rows the same
// chain selects.
func (b *Builder) Assemble(op Op, c *Chain, tail int, columns ...string) (Statement, error) {
	if c == nil || tail < 0 || tail >= c.Len() {
		return Statement{}, NewArgumentError("tail", "out of range")
	}
	s, err := b.inspect(c, tail)
	if err != nil {
		return Statement{}, err
	}
	if op == OpCount && (s.distinct || s.grouped || s.limited()) {
		inner, err := b.assemble(OpSelect, c, tail, s, !s.limited(), columns)
		if err != nil {
			return Statement{}, err
		}
		inner.SQL = "SELECT COUNT(*) FROM (" + inner.SQL + ") AS t"
		return inner, nil
	}
	return b.assemble(op, c, tail, s, op == OpCount, columns)
}

func (b *Builder) assemble(op Op, c *Chain, tail int, s shape, skipOrder bool, columns []string) (Statement, error) {
	var (
		sb    strings.Builder
		bd    = b.newBinder()
		path  = c.Path(tail)
		table = s.root.table()
	)
	switch op {
	case OpSelect, OpCount:
		sb.WriteString("SELECT")
		if s.distinct && op == OpSelect {
			sb.WriteString(" DISTINCT")
		}
		if s.hasTop {
			sb.WriteString(" TOP ")
			sb.WriteString(strconv.Itoa(s.top))
		}
		sb.WriteByte(' ')
		if op == OpCount {
			sb.WriteString("COUNT(*)")
		} else {
			sb.WriteString(strings.Join(b.selectColumns(s, columns), ", "))
		}
	case OpUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(table)
	case OpDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(table)
	default:
		return Statement{}, NewArgumentError("op", fmt.Sprintf("%s cannot be assembled from a chain", op))
	}
	var sets int
	for k, i := range path {
		n := &c.nodes[i]
		if skipOrder && n.Kind == KindOrderBy {
			continue
		}
		prev := NodeKind(0)
		if k > 0 {
			prev = c.nodes[path[k-1]].Kind
		}
		if op == OpUpdate && n.Kind == KindSet {
			sets++
		}
		if clause, sep := b.render(op, n, prev, bd); clause != "" {
			sb.WriteString(sep)
			sb.WriteString(clause)
		}
	}
	if op == OpUpdate && sets == 0 {
		return Statement{}, NewArgumentError("set", "update requires at least one Set")
	}
	return Statement{SQL: sb.String(), Params: bd.params}, nil
}

func (b *Builder) selectColumns(s shape, override []string) []string {
	if len(override) > 0 {
		return override
	}
	if s.root.Meta == nil {
		return []string{"*"}
	}
	cols := s.root.Meta.ColumnNames()
	if !s.join || s.alias == "" {
		return cols
	}
	prefixed := make([]string, len(cols))
	for i, col := range cols {
		prefixed[i] = s.alias + "." + col
	}
	return prefixed
}

// render emits the fixed textual form of n and the text joining it to the
// previous clause. Runs of Where, Having, Set and OrderBy nodes render as
// one clause: only the first node of a run writes the keyword.
func (b *Builder) render(op Op, n *Node, prev NodeKind, bd *binder) (string, string) {
	cont := prev == n.Kind
	switch n.Kind {
	case KindFrom:
		if op != OpSelect && op != OpCount {
			return "", ""
		}
		return join("FROM", n.table(), n.Alias), " "
	case KindJoin:
		return join(string(n.Join), n.table(), n.Alias), " "
	case KindOn:
		return "ON " + b.quoteColumn(n.Left) + " = " + b.quoteColumn(n.Right), " "
	case KindWhere, KindHaving:
		text := b.renderTriples(n.Triples, cont, bd)
		switch {
		case cont:
			return text, " "
		case n.Kind == KindWhere:
			return "WHERE " + text, " "
		default:
			return "HAVING " + text, " "
		}
	case KindSet:
		text := b.quoteColumn(n.Column) + " = " + bd.bind(n.Column, n.Value)
		if cont {
			return text, ", "
		}
		return "SET " + text, " "
	case KindGroupBy:
		cols := make([]string, len(n.Columns))
		for i, col := range n.Columns {
			cols[i] = b.quoteColumn(col)
		}
		return "GROUP BY " + strings.Join(cols, ", "), " "
	case KindOrderBy:
		terms := make([]string, len(n.Orders))
		for i, o := range n.Orders {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			terms[i] = b.quoteColumn(o.Column) + " " + dir
		}
		if cont {
			return strings.Join(terms, ", "), ", "
		}
		return "ORDER BY " + strings.Join(terms, ", "), " "
	case KindLimit:
		return "LIMIT " + strconv.Itoa(n.N), " "
	case KindOffset:
		if b.dialect.Name() == dialect.SQLServer {
			return "OFFSET " + strconv.Itoa(n.N) + " ROWS", " "
		}
		return "OFFSET " + strconv.Itoa(n.N), " "
	case KindFetch:
		return "FETCH NEXT " + strconv.Itoa(n.N) + " ROWS ONLY", " "
	default:
		// Top and Distinct render in the statement head.
		return "", ""
	}
}

// renderTriples renders predicate triples. A continuation that does not
// start with a separator is joined with AND.
func (b *Builder) renderTriples(ts []expr.Triple, cont bool, bd *binder) string {
	var sb strings.Builder
	for i, t := range ts {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		if t.IsSep() {
			sb.WriteString(string(t.Sep))
			continue
		}
		if i == 0 && cont {
			sb.WriteString(string(expr.SepAnd))
			sb.WriteByte(' ')
		}
		sb.WriteString(b.quoteColumn(t.Column))
		sb.WriteByte(' ')
		sb.WriteString(string(t.Op))
		sb.WriteByte(' ')
		sb.WriteString(bd.bind(t.Column, t.Value))
	}
	return sb.String()
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
