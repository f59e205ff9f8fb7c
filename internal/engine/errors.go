package engine

import "fmt"

// SyntaxError reports a parser failure, carrying the offending token and
// its position in the input.
type SyntaxError struct {
	Token string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d near %q: %s", e.Pos, e.Token, e.Msg)
}

// SchemaError reports an unknown table/column or a duplicate definition.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "schema error: " + e.Msg }

// TypeError reports a value that cannot be coerced to a column's declared type.
type TypeError struct {
	Column string
	Type   ValueType
	Value  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: cannot coerce %v into column %q of type %s", e.Value, e.Column, e.Type)
}

// ArityError reports a tuple whose length does not match the column count.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("arity error: expected %d values, got %d", e.Want, e.Got)
}

// ConstraintViolation reports a NOT NULL, UNIQUE, or PRIMARY KEY violation.
type ConstraintViolation struct {
	Table  string
	Column string
	Msg    string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation on %s.%s: %s", e.Table, e.Column, e.Msg)
}

// ReferentialIntegrityError reports a foreign key violation on insert
// (missing parent) or delete (orphaning children).
type ReferentialIntegrityError struct {
	Msg string
}

func (e *ReferentialIntegrityError) Error() string {
	return "referential integrity error: " + e.Msg
}

// AmbiguousColumn reports a bare column name resolving to more than one
// source in a join.
type AmbiguousColumn struct {
	Column string
}

func (e *AmbiguousColumn) Error() string {
	return fmt.Sprintf("ambiguous column %q", e.Column)
}

// TransactionError reports a nested BEGIN or an undo-replay failure during
// ROLLBACK.
type TransactionError struct {
	Msg string
}

func (e *TransactionError) Error() string { return "transaction error: " + e.Msg }

// CorruptSnapshot reports a persistence round-trip whose invariants failed
// verification after decoding.
type CorruptSnapshot struct {
	Msg string
}

func (e *CorruptSnapshot) Error() string { return "corrupt snapshot: " + e.Msg }
