package sql

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/syssam/sqlkit/dialect"
)

// Rebind converts the named parameters of query to the placeholder style
// the dialect's driver accepts and returns the driver arguments.
//
// SQL Server and SQLite drivers accept @name placeholders natively and get
// sql.NamedArg values. PostgreSQL placeholders become $1, $2, ... and MySQL
// placeholders become ?, both with positional arguments. Quoted spans of
// the query are left untouched.
func Rebind(d dialect.Dialect, query string, args []dialect.Arg) (string, []any, error) {
	switch d.Name() {
	case dialect.Postgres, dialect.MySQL:
	default:
		argv := make([]any, len(args))
		for i, a := range args {
			argv[i] = sql.Named(a.Name, a.Value)
		}
		return query, argv, nil
	}
	if len(args) == 0 {
		return query, nil, nil
	}
	values := make(map[string]any, len(args))
	for _, a := range args {
		values[a.Name] = a.Value
	}
	var (
		sb    strings.Builder
		argv  = make([]any, 0, len(args))
		index = make(map[string]int, len(args))
		mysql = d.Name() == dialect.MySQL
	)
	sb.Grow(len(query))
	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			end := closing(query, i)
			sb.WriteString(query[i:end])
			i = end
		case c == ParamPrefix[0] && i+1 < len(query) && isNameStart(query[i+1]):
			j := scanName(query, i+1, mysql)
			name := query[i+1 : j]
			v, ok := values[name]
			if !ok {
				return "", nil, NewArgumentError(name, "no value bound to parameter")
			}
			if mysql {
				sb.WriteByte('?')
				argv = append(argv, v)
			} else {
				n, seen := index[name]
				if !seen {
					argv = append(argv, v)
					n = len(argv)
					index[name] = n
				}
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(n))
			}
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), argv, nil
}

// closing returns the index after the quoted span starting at i. Doubled
// quote characters inside the span are an escape.
func closing(s string, i int) int {
	end := s[i]
	if end == '[' {
		end = ']'
	}
	for j := i + 1; j < len(s); j++ {
		if s[j] != end {
			continue
		}
		if j+1 < len(s) && s[j+1] == end && end != ']' {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= utf8.RuneSelf
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}

// scanName returns the end of the parameter name starting at i. With dots
// set, an alias-qualified name such as p.Id is read as one name.
func scanName(s string, i int, dots bool) int {
	for i < len(s) {
		switch {
		case isNameChar(s[i]):
			i++
		case dots && s[i] == '.' && i+1 < len(s) && isNameStart(s[i+1]):
			i++
		default:
			return i
		}
	}
	return i
}

// ArgsString formats arguments for logging.
func ArgsString(args []dialect.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s%s=%v", ParamPrefix, a.Name, a.Value)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
