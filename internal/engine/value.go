package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueType names one of the five value domains a column may hold.
type ValueType int

const (
	TypeInteger ValueType = iota
	TypeReal
	TypeText
	TypeBoolean
	TypeDate
)

func (t ValueType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeText:
		return "TEXT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

// ParseValueType maps a grammar type keyword to a ValueType.
func ParseValueType(s string) (ValueType, bool) {
	switch strings.ToUpper(s) {
	case "INTEGER":
		return TypeInteger, true
	case "REAL":
		return TypeReal, true
	case "TEXT":
		return TypeText, true
	case "BOOLEAN":
		return TypeBoolean, true
	case "DATE":
		return TypeDate, true
	default:
		return 0, false
	}
}

const dateLayout = "2006-01-02"

// Value is a tagged union over the five value domains plus null. The zero
// Value is null.
type Value struct {
	typ    ValueType
	isNull bool
	i      int64
	r      float64
	s      string
	b      bool
	d      time.Time
}

// Null returns the distinguished null value.
func Null() Value { return Value{isNull: true} }

func IntValue(i int64) Value    { return Value{typ: TypeInteger, i: i} }
func RealValue(r float64) Value { return Value{typ: TypeReal, r: r} }
func TextValue(s string) Value  { return Value{typ: TypeText, s: s} }
func BoolValue(b bool) Value    { return Value{typ: TypeBoolean, b: b} }

// DateValue constructs a DATE value. The time component is discarded;
// only the calendar date is significant.
func DateValue(t time.Time) Value {
	return Value{typ: TypeDate, d: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (v Value) IsNull() bool    { return v.isNull }
func (v Value) Type() ValueType { return v.typ }
func (v Value) Int() int64      { return v.i }
func (v Value) Real() float64   { return v.r }
func (v Value) Text() string    { return v.s }
func (v Value) Bool() bool      { return v.b }
func (v Value) Date() time.Time { return v.d }

// Native returns the value as a plain Go value (nil for null). Coerce
// uses it to re-validate an existing Value against a column type.
func (v Value) Native() any {
	if v.isNull {
		return nil
	}
	switch v.typ {
	case TypeInteger:
		return v.i
	case TypeReal:
		return v.r
	case TypeText:
		return v.s
	case TypeBoolean:
		return v.b
	case TypeDate:
		return v.d
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.isNull {
		return "NULL"
	}
	switch v.typ {
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeReal:
		return strconv.FormatFloat(v.r, 'g', -1, 64)
	case TypeText:
		return v.s
	case TypeBoolean:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case TypeDate:
		return v.d.Format(dateLayout)
	default:
		return "?"
	}
}

// Coerce converts a raw ingested value (typically produced by the parser
// as int64, float64, string, or bool, or already a Value) into a Value
// matching the declared column type. Null is accepted unconditionally; the
// NOT NULL check happens separately in the storage engine.
func Coerce(raw any, want ValueType) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	if v, ok := raw.(Value); ok {
		if v.isNull {
			return Null(), nil
		}
		raw = v.Native()
	}

	switch want {
	case TypeInteger:
		switch n := raw.(type) {
		case int64:
			return IntValue(n), nil
		case int:
			return IntValue(int64(n)), nil
		}
	case TypeReal:
		// Integer literals are accepted as REAL columns.
		switch n := raw.(type) {
		case float64:
			return RealValue(n), nil
		case int64:
			return RealValue(float64(n)), nil
		case int:
			return RealValue(float64(n)), nil
		}
	case TypeText:
		// Any numeric value fails for TEXT.
		if s, ok := raw.(string); ok {
			return TextValue(s), nil
		}
	case TypeBoolean:
		switch b := raw.(type) {
		case bool:
			return BoolValue(b), nil
		case string:
			switch strings.ToUpper(b) {
			case "TRUE":
				return BoolValue(true), nil
			case "FALSE":
				return BoolValue(false), nil
			}
		}
	case TypeDate:
		switch d := raw.(type) {
		case time.Time:
			return DateValue(d), nil
		case string:
			if t, err := time.Parse(dateLayout, d); err == nil {
				return DateValue(t), nil
			}
		}
	}
	return Value{}, &TypeError{Type: want, Value: raw}
}

// Equal reports structural equality within a domain. Cross-domain
// comparisons, including against null, are always false.
func (v Value) Equal(o Value) bool {
	if v.isNull || o.isNull || v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeInteger:
		return v.i == o.i
	case TypeReal:
		return v.r == o.r
	case TypeText:
		return v.s == o.s
	case TypeBoolean:
		return v.b == o.b
	case TypeDate:
		return v.d.Equal(o.d)
	default:
		return false
	}
}

// Less defines the natural order within a domain. Cross-domain comparisons
// panic; callers must only compare values already known to share a type
// (the evaluator enforces this via column typing).
func (v Value) Less(o Value) bool {
	if v.typ != o.typ {
		panic(fmt.Sprintf("engine: cross-domain comparison %s vs %s", v.typ, o.typ))
	}
	switch v.typ {
	case TypeInteger:
		return v.i < o.i
	case TypeReal:
		return v.r < o.r
	case TypeText:
		return v.s < o.s
	case TypeBoolean:
		return !v.b && o.b
	case TypeDate:
		return v.d.Before(o.d)
	default:
		return false
	}
}

// hashKey returns a comparable Go value suitable for use as a map key in
// the index manager. Values of the same domain and same content always
// produce equal keys.
func (v Value) hashKey() any {
	if v.isNull {
		return nil
	}
	switch v.typ {
	case TypeInteger:
		return [2]any{v.typ, v.i}
	case TypeReal:
		return [2]any{v.typ, v.r}
	case TypeText:
		return [2]any{v.typ, v.s}
	case TypeBoolean:
		return [2]any{v.typ, v.b}
	case TypeDate:
		return [2]any{v.typ, v.d.Unix()}
	default:
		return nil
	}
}

// MatchLike implements the LIKE pattern: '%' matches any span (including
// empty), '_' matches exactly one character. In strict mode matching is
// case-sensitive; non-strict mode folds case before matching.
func MatchLike(s, pattern string, strict bool) bool {
	if !strict {
		s = strings.ToUpper(s)
		pattern = strings.ToUpper(pattern)
	}
	return matchLike([]rune(s), []rune(pattern))
}

func matchLike(s, p []rune) bool {
	// Classic DP-free recursive matcher adequate for short patterns; a
	// star collapses adjacent stars and tries every split point.
	if len(p) == 0 {
		return len(s) == 0
	}
	if p[0] == '%' {
		// Skip redundant consecutive '%'.
		for len(p) > 0 && p[0] == '%' {
			p = p[1:]
		}
		if len(p) == 0 {
			return true
		}
		for i := 0; i <= len(s); i++ {
			if matchLike(s[i:], p) {
				return true
			}
		}
		return false
	}
	if len(s) == 0 {
		return false
	}
	if p[0] == '_' || p[0] == s[0] {
		return matchLike(s[1:], p[1:])
	}
	return false
}
