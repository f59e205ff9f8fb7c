// Package sqlparser tokenizes and parses the engine's SQL-like statement
// language into a structured statement the engine package dispatches on.
// It is a line-oriented, case-insensitive-keyword parser over a strict
// grammar with no nested expressions.
package sqlparser

import "strings"

// Kind identifies the lexical category of a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	Number
	Float
	String
	Symbol
)

// Token is one scanned lexeme together with its byte offset, used to
// report SyntaxError with a useful position.
type Token struct {
	Kind Kind
	Text string
	Pos  int
}

var keywords = map[string]bool{
	"CREATE": true, "TABLE": true, "INDEX": true, "ON": true,
	"INTO": true, "VALUES": true, "INSERT": true,
	"SELECT": true, "FROM": true, "JOIN": true, "WHERE": true, "AND": true,
	"GROUP": true, "BY": true,
	"UPDATE": true, "SET": true, "DELETE": true, "DROP": true,
	"BEGIN": true, "COMMIT": true, "ROLLBACK": true,
	"PRIMARY": true, "KEY": true, "NOT": true, "NULL": true, "UNIQUE": true,
	"FOREIGN": true, "REFERENCES": true,
	"INTEGER": true, "REAL": true, "TEXT": true, "BOOLEAN": true, "DATE": true,
	"TRUE": true, "FALSE": true,
	"LIKE": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

func isKeyword(s string) bool { return keywords[strings.ToUpper(s)] }
