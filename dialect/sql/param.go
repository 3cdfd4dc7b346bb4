package sql

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/schema"
)

// ParamPrefix marks a named parameter in generated SQL.
const ParamPrefix = "@"

// Param is a named statement parameter.
type Param = dialect.Arg

// Statement is an assembled SQL statement with its parameters in the order
// they appear in the text.
type Statement struct {
	SQL    string
	Params []Param
}

// Map returns the parameters keyed by name.
func (s Statement) Map() map[string]any {
	m := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		m[p.Name] = p.Value
	}
	return m
}

// Names returns the parameter names in order.
func (s Statement) Names() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// Terminated returns the SQL text ending with a semicolon.
func (s Statement) Terminated() string {
	if strings.HasSuffix(s.SQL, ";") {
		return s.SQL
	}
	return s.SQL + ";"
}

// binder hands out unique parameter names within one statement.
type binder struct {
	b      *Builder
	used   map[string]struct{}
	params []Param
}

func (b *Builder) newBinder() *binder {
	return &binder{b: b, used: make(map[string]struct{})}
}

// bind registers value under a name derived from column and returns the
// placeholder. A name already taken in the statement gets a _1, _2, ...
// suffix; the column text in the SQL is unaffected.
func (bd *binder) bind(column string, value any) string {
	return bd.bindName(bd.b.paramName(column), value)
}

func (bd *binder) bindName(base string, value any) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := bd.used[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	bd.used[name] = struct{}{}
	bd.params = append(bd.params, Param{Name: name, Value: value})
	return ParamPrefix + name
}

// paramName derives a parameter name from a possibly alias-qualified
// column: quotes are removed, the alias dot is replaced by the dialect's
// separator and characters that cannot appear in a name are dropped.
func (b *Builder) paramName(column string) string {
	parts := strings.Split(column, ".")
	for i, p := range parts {
		parts[i] = sanitize(schema.ParamName(p))
	}
	name := strings.Join(parts, b.dialect.AliasSeparator())
	if b.paramFormat != nil {
		name = b.paramFormat(name)
	}
	return name
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
	if t := strings.Trim(s, "_"); t != "" {
		return t
	}
	return "p"
}

// quoteColumn quotes each dot-separated part of column when needed.
func (b *Builder) quoteColumn(column string) string {
	if !strings.Contains(column, ".") {
		return b.dialect.QuoteIfNeeded(column)
	}
	parts := strings.Split(column, ".")
	for i, p := range parts {
		parts[i] = b.dialect.QuoteIfNeeded(p)
	}
	return strings.Join(parts, ".")
}
