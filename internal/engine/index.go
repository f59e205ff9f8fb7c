package engine

// Index is a hash index from a column value to the set of row identifiers
// holding that value. PK/UNIQUE indexes additionally enforce that a key
// maps to at most one rid.
type Index struct {
	Name     string
	Column   string
	Unique   bool
	entries  map[any]map[int64]struct{}
}

func newIndex(name, column string, unique bool) *Index {
	return &Index{
		Name:    name,
		Column:  column,
		Unique:  unique,
		entries: make(map[any]map[int64]struct{}),
	}
}

// add registers value -> rid. For a null value this is a no-op: null never
// participates in uniqueness or equality lookups. For a UNIQUE index, add
// rejects when the key is already present with a different rid; the
// storage engine is expected to have already pre-checked in its own index
// consultation, so a rejection here indicates a caller bug.
func (ix *Index) add(v Value, rid int64) error {
	if v.IsNull() {
		return nil
	}
	key := v.hashKey()
	set, ok := ix.entries[key]
	if !ok {
		set = make(map[int64]struct{}, 1)
		ix.entries[key] = set
	}
	if ix.Unique {
		for existing := range set {
			if existing != rid {
				return &ConstraintViolation{Column: ix.Column, Msg: "duplicate value for unique index " + ix.Name}
			}
		}
	}
	set[rid] = struct{}{}
	return nil
}

// remove deletes the (value, rid) entry.
func (ix *Index) remove(v Value, rid int64) {
	if v.IsNull() {
		return
	}
	key := v.hashKey()
	set, ok := ix.entries[key]
	if !ok {
		return
	}
	delete(set, rid)
	if len(set) == 0 {
		delete(ix.entries, key)
	}
}

// lookupEq returns the (possibly empty) set of rids whose indexed column
// equals v. An unknown key yields the empty set, never an error.
func (ix *Index) lookupEq(v Value) map[int64]struct{} {
	if v.IsNull() {
		return nil
	}
	return ix.entries[v.hashKey()]
}

// has reports whether v is present in the index with a rid other than
// exclude. UPDATE passes the row's own rid as exclude so a row never
// conflicts with itself.
func (ix *Index) has(v Value, exclude int64) bool {
	set := ix.lookupEq(v)
	for rid := range set {
		if rid != exclude {
			return true
		}
	}
	return false
}

// rebuildCheck recomputes this index from a full scan and reports whether
// it matches the current state. Used by snapshot verification and by
// tests asserting index consistency after mutations.
func (ix *Index) rebuildCheck(t *Table) bool {
	fresh := newIndex(ix.Name, ix.Column, ix.Unique)
	col := t.schema.ColumnIndex(ix.Column)
	for rid, tuple := range t.rows {
		if err := fresh.add(tuple[col], rid); err != nil {
			return false
		}
	}
	if len(fresh.entries) != len(ix.entries) {
		return false
	}
	for key, set := range fresh.entries {
		other, ok := ix.entries[key]
		if !ok || len(other) != len(set) {
			return false
		}
		for rid := range set {
			if _, ok := other[rid]; !ok {
				return false
			}
		}
	}
	return true
}
