package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Naming holds the callbacks used to derive table and column names.
// A nil callback falls back to the default behavior.
type Naming struct {
	// TableMapper overrides the table name of a type. An empty result
	// falls through to the next rule.
	TableMapper func(reflect.Type) string
	// TableFormatter post-processes every derived table name.
	TableFormatter func(string) string
	// ColumnFormatter post-processes column names derived from field names.
	// Explicitly named columns are left untouched.
	ColumnFormatter func(string) string
	// Pluralize turns a type name into a table name. Defaults to
	// EnglishPlural.
	Pluralize func(string) string
}

func (n Naming) pluralize(s string) string {
	if n.Pluralize != nil {
		return n.Pluralize(s)
	}
	return EnglishPlural(s)
}

// EnglishPlural pluralizes the last word of a CamelCase type name, so
// irregular nouns match whatever their case: Person becomes People and
// SalesPerson becomes SalesPeople. All-caps words are passed through
// inflect unchanged.
func EnglishPlural(s string) string {
	i := lastWord(s)
	head, word := s[:i], s[i:]
	if word == "" || strings.ToUpper(word) == word {
		return inflect.Pluralize(s)
	}
	plural := inflect.Pluralize(strings.ToLower(word))
	if r := word[0]; r >= 'A' && r <= 'Z' {
		plural = strings.ToUpper(plural[:1]) + plural[1:]
	}
	return head + plural
}

// lastWord returns the index where the last CamelCase word of s starts.
func lastWord(s string) int {
	upper := func(c byte) bool { return c >= 'A' && c <= 'Z' }
	for i := len(s) - 1; i > 0; i-- {
		c, prev := s[i], s[i-1]
		switch {
		case prev == '_':
			return i
		case upper(c) && !upper(prev):
			return i
		case upper(c) && i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z':
			return i
		}
	}
	return 0
}

func (n Naming) formatTable(s string) string {
	if n.TableFormatter != nil {
		return n.TableFormatter(s)
	}
	return s
}

func (n Naming) formatColumn(s string) string {
	if n.ColumnFormatter != nil {
		return n.ColumnFormatter(s)
	}
	return s
}

// Identity returns its argument. Use it as Naming.Pluralize to keep type
// names as table names.
func Identity(s string) string { return s }

// Style names accepted by StyleFunc.
const (
	StyleNone  = "none"
	StyleLower = "lower"
	StyleUpper = "upper"
	StyleTitle = "title"
	StyleSnake = "snake"
	StyleCamel = "camel"
)

// StyleFunc returns the formatter registered under style.
func StyleFunc(style string) (func(string) string, error) {
	switch strings.ToLower(style) {
	case "", StyleNone:
		return Identity, nil
	case StyleLower:
		return caser(func() cases.Caser { return cases.Lower(language.Und) }), nil
	case StyleUpper:
		return caser(func() cases.Caser { return cases.Upper(language.Und) }), nil
	case StyleTitle:
		return caser(func() cases.Caser { return cases.Title(language.English, cases.NoLower) }), nil
	case StyleSnake:
		return inflect.Underscore, nil
	case StyleCamel:
		return inflect.Camelize, nil
	default:
		return nil, fmt.Errorf("schema: unknown naming style %q", style)
	}
}

// caser wraps a Caser constructor. A Caser keeps state between calls and
// must not be shared between goroutines.
func caser(newCaser func() cases.Caser) func(string) string {
	return func(s string) string {
		return newCaser().String(s)
	}
}
