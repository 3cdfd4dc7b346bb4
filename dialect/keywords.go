package dialect

import "strings"

// reserved holds words that are reserved in at least one supported engine.
// Identifiers matching them are quoted under every dialect.
var reserved = func() map[string]struct{} {
	words := []string{
		"ADD", "ALL", "ALTER", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY",
		"CASE", "CHECK", "COLUMN", "CONSTRAINT", "CREATE", "CROSS", "CURRENT",
		"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER",
		"DATABASE", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP", "ELSE",
		"END", "EXCEPT", "EXEC", "EXISTS", "FETCH", "FOR", "FOREIGN", "FROM",
		"FULL", "GRANT", "GROUP", "HAVING", "IN", "INDEX", "INNER", "INSERT",
		"INTERSECT", "INTO", "IS", "JOIN", "KEY", "LEFT", "LIKE", "LIMIT",
		"NOT", "NULL", "OFFSET", "ON", "OR", "ORDER", "OUTER", "PERCENT",
		"PRIMARY", "REFERENCES", "RIGHT", "ROWS", "SCHEMA", "SELECT", "SET",
		"TABLE", "THEN", "TO", "TOP", "TRANSACTION", "UNION", "UNIQUE",
		"UPDATE", "USER", "USING", "VALUES", "VIEW", "WHEN", "WHERE", "WITH",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsReserved reports whether word is a reserved SQL keyword.
func IsReserved(word string) bool {
	_, ok := reserved[strings.ToUpper(word)]
	return ok
}
