package engine

// Op names a comparison operator usable in a WHERE predicate.
type Op int

const (
	OpEq Op = iota
	OpLt
	OpGt
	OpLike
)

// Predicate is one conjunct of a WHERE clause: column OP operand.
type Predicate struct {
	Column  string
	Op      Op
	Operand Value
}

// Where is a conjunction of predicates. An empty Where matches every row.
type Where []Predicate

// LikeStrict controls whether LIKE matching is case-sensitive (true, the
// default) or case-insensitive (false). It is set once at startup from
// the query.like_strict config key; there is no per-query override.
var LikeStrict = true

// SetLikeStrict overrides the engine's LIKE case-sensitivity mode.
func SetLikeStrict(strict bool) { LikeStrict = strict }

// matches reports whether tuple (indexed against schema) satisfies every
// predicate. Null comparisons always yield false, never true and never
// an error.
func (w Where) matches(schema *TableSchema, tuple []Value) bool {
	for _, p := range w {
		idx := schema.ColumnIndex(p.Column)
		if idx < 0 {
			return false
		}
		if !predicateMatches(p, tuple[idx]) {
			return false
		}
	}
	return true
}

func predicateMatches(p Predicate, v Value) bool {
	if v.IsNull() || p.Operand.IsNull() {
		return false
	}
	switch p.Op {
	case OpEq:
		return v.Equal(p.Operand)
	case OpLt:
		return v.Type() == p.Operand.Type() && v.Less(p.Operand)
	case OpGt:
		return v.Type() == p.Operand.Type() && p.Operand.Less(v)
	case OpLike:
		return v.Type() == TypeText && p.Operand.Type() == TypeText && MatchLike(v.Text(), p.Operand.Text(), LikeStrict)
	default:
		return false
	}
}

// PlanKind reports whether a filter was answered via an index lookup or
// a full table scan.
type PlanKind int

const (
	FullScan PlanKind = iota
	IndexScan
)

func (k PlanKind) String() string {
	if k == IndexScan {
		return "IndexScan"
	}
	return "FullScan"
}
