package engine

import "sort"

// Table is the row container for one table: a monotonic rid allocator, a
// rid-to-tuple row store, and the set of indexes kept consistent with it.
type Table struct {
	schema  *TableSchema
	rows    map[int64][]Value
	nextRid int64
	indexes map[string]*Index // by column name; at most one index per column
	db      *Database         // back-reference for foreign-key resolution
}

func newTable(db *Database, schema *TableSchema) *Table {
	t := &Table{
		schema:  schema,
		rows:    make(map[int64][]Value),
		indexes: make(map[string]*Index),
		db:      db,
	}
	for _, c := range schema.Columns {
		if c.effectiveUnique() {
			t.indexes[c.Name] = newIndex(autoIndexName(schema.Name, c.Name), c.Name, true)
		}
	}
	return t
}

func autoIndexName(table, column string) string { return table + "_" + column + "_auto_idx" }

// CreateIndex adds an explicit, non-unique-by-default hash index on column,
// backfilling it from the current row store. It is an error to index a
// nonexistent column or to redeclare an index already present on that
// column.
func (t *Table) CreateIndex(name, column string) error {
	if _, ok := t.schema.Column(column); !ok {
		return &SchemaError{Msg: "unknown column " + column + " on table " + t.schema.Name}
	}
	if _, exists := t.indexes[column]; exists {
		return &SchemaError{Msg: "index already exists on column " + column}
	}
	col, _ := t.schema.Column(column)
	ix := newIndex(name, column, col.effectiveUnique())
	for rid, tuple := range t.rows {
		// Backfill cannot fail for a freshly declared index on existing,
		// already-consistent data unless it is UNIQUE and the data
		// violates it, in which case index creation itself fails.
		if err := ix.add(tuple[t.schema.ColumnIndex(column)], rid); err != nil {
			return err
		}
	}
	t.indexes[column] = ix
	return nil
}

// HasIndex reports whether column carries a hash index (explicit or
// implicit via PK/UNIQUE).
func (t *Table) HasIndex(column string) bool {
	_, ok := t.indexes[column]
	return ok
}

// Insert validates and appends one row, returning its newly allocated rid.
// Arity, coercion, NOT NULL, uniqueness, and foreign-key checks all run
// before any state changes: no partial state is observable on failure.
func (t *Table) Insert(txm *TransactionManager, values []Value) (int64, error) {
	if len(values) != len(t.schema.Columns) {
		return 0, &ArityError{Want: len(t.schema.Columns), Got: len(values)}
	}

	coerced := make([]Value, len(values))
	for i, c := range t.schema.Columns {
		v, err := Coerce(values[i], c.Type)
		if err != nil {
			err.(*TypeError).Column = c.Name
			return 0, err
		}
		coerced[i] = v
	}

	for i, c := range t.schema.Columns {
		if coerced[i].IsNull() && c.effectiveNotNull() {
			return 0, &ConstraintViolation{Table: t.schema.Name, Column: c.Name, Msg: "NOT NULL violated"}
		}
	}

	for i, c := range t.schema.Columns {
		if !c.effectiveUnique() || coerced[i].IsNull() {
			continue
		}
		if ix := t.indexes[c.Name]; ix != nil && ix.has(coerced[i], -1) {
			return 0, &ConstraintViolation{Table: t.schema.Name, Column: c.Name, Msg: "duplicate value " + coerced[i].String()}
		}
	}

	for i, c := range t.schema.Columns {
		if c.ForeignKey == nil || coerced[i].IsNull() {
			continue
		}
		if err := t.db.checkParentExists(*c.ForeignKey, coerced[i]); err != nil {
			return 0, err
		}
	}

	rid := t.nextRid
	t.nextRid++

	if txm != nil && txm.active() {
		txm.record(insertUndo{table: t.schema.Name, rid: rid})
	}

	t.rows[rid] = coerced
	for _, ix := range t.indexes {
		col := t.schema.ColumnIndex(ix.Column)
		_ = ix.add(coerced[col], rid) // cannot fail: uniqueness pre-checked above
	}
	return rid, nil
}

// candidates returns the set of rids to row-wise filter, along with the
// plan kind used to produce it. When a conjunct of the form `col = lit` is
// indexed, that lookup seeds the candidate set; otherwise a full scan is
// used.
func (t *Table) candidates(where Where) (map[int64]struct{}, PlanKind) {
	for _, p := range where {
		if p.Op != OpEq || p.Operand.IsNull() {
			continue
		}
		ix, ok := t.indexes[p.Column]
		if !ok {
			continue
		}
		set := ix.lookupEq(p.Operand)
		out := make(map[int64]struct{}, len(set))
		for rid := range set {
			out[rid] = struct{}{}
		}
		return out, IndexScan
	}
	out := make(map[int64]struct{}, len(t.rows))
	for rid := range t.rows {
		out[rid] = struct{}{}
	}
	return out, FullScan
}

// Select returns matching (rid, tuple) pairs in ascending rid order,
// together with the plan kind used.
func (t *Table) Select(where Where) ([]int64, [][]Value, PlanKind) {
	cand, plan := t.candidates(where)
	rids := make([]int64, 0, len(cand))
	for rid := range cand {
		if where.matches(t.schema, t.rows[rid]) {
			rids = append(rids, rid)
		}
	}
	sort.Slice(rids, func(i, j int) bool { return rids[i] < rids[j] })
	tuples := make([][]Value, len(rids))
	for i, rid := range rids {
		tuples[i] = t.rows[rid]
	}
	return rids, tuples, plan
}

// Assignment is one `col = lit` term of an UPDATE's SET list.
type Assignment struct {
	Column  string
	Operand Value
}

// Update applies assignments to every row matching where, re-running the
// full validation pipeline against the new tuple. A row's own
// pre-existing value is exempt from its own UNIQUE check, so setting a
// key column to its current value is never a violation.
func (t *Table) Update(txm *TransactionManager, where Where, assignments []Assignment) (int, error) {
	rids, _, _ := t.Select(where)

	newTuples := make(map[int64][]Value, len(rids))
	for _, rid := range rids {
		old := t.rows[rid]
		next := make([]Value, len(old))
		copy(next, old)
		for _, a := range assignments {
			ci := t.schema.ColumnIndex(a.Column)
			if ci < 0 {
				return 0, &SchemaError{Msg: "unknown column " + a.Column}
			}
			v, err := Coerce(a.Operand, t.schema.Columns[ci].Type)
			if err != nil {
				err.(*TypeError).Column = a.Column
				return 0, err
			}
			next[ci] = v
		}
		for i, c := range t.schema.Columns {
			if next[i].IsNull() && c.effectiveNotNull() {
				return 0, &ConstraintViolation{Table: t.schema.Name, Column: c.Name, Msg: "NOT NULL violated"}
			}
			if c.effectiveUnique() && !next[i].IsNull() {
				if ix := t.indexes[c.Name]; ix != nil && ix.has(next[i], rid) {
					return 0, &ConstraintViolation{Table: t.schema.Name, Column: c.Name, Msg: "duplicate value " + next[i].String()}
				}
			}
			if c.ForeignKey != nil && !next[i].IsNull() {
				if err := t.db.checkParentExists(*c.ForeignKey, next[i]); err != nil {
					return 0, err
				}
			}
		}
		newTuples[rid] = next
	}

	for _, rid := range rids {
		old := t.rows[rid]
		next := newTuples[rid]
		if txm != nil && txm.active() {
			pre := make([]Value, len(old))
			copy(pre, old)
			txm.record(updateUndo{table: t.schema.Name, rid: rid, pre: pre})
		}
		for _, ix := range t.indexes {
			col := t.schema.ColumnIndex(ix.Column)
			if !old[col].Equal(next[col]) || (old[col].IsNull() != next[col].IsNull()) {
				ix.remove(old[col], rid)
				_ = ix.add(next[col], rid)
			}
		}
		t.rows[rid] = next
	}
	return len(rids), nil
}

// Delete removes every row matching where, after verifying no other
// table's foreign key references it. The whole operation is aborted
// before any row is removed if any reference exists.
func (t *Table) Delete(txm *TransactionManager, where Where) (int, error) {
	rids, _, _ := t.Select(where)

	for _, rid := range rids {
		if err := t.db.checkNoReferencingChildren(t.schema.Name, t.rows[rid], t.schema); err != nil {
			return 0, err
		}
	}

	for _, rid := range rids {
		tuple := t.rows[rid]
		if txm != nil && txm.active() {
			snapshot := make([]Value, len(tuple))
			copy(snapshot, tuple)
			txm.record(deleteUndo{table: t.schema.Name, rid: rid, tuple: snapshot})
		}
		for _, ix := range t.indexes {
			col := t.schema.ColumnIndex(ix.Column)
			ix.remove(tuple[col], rid)
		}
		delete(t.rows, rid)
	}
	return len(rids), nil
}

// Scan yields every (rid, tuple) pair in ascending rid order.
func (t *Table) Scan() ([]int64, [][]Value) {
	rids := make([]int64, 0, len(t.rows))
	for rid := range t.rows {
		rids = append(rids, rid)
	}
	sort.Slice(rids, func(i, j int) bool { return rids[i] < rids[j] })
	tuples := make([][]Value, len(rids))
	for i, rid := range rids {
		tuples[i] = t.rows[rid]
	}
	return rids, tuples
}

// reinsert restores a row at exactly rid, for ROLLBACK of a DELETE, and
// bumps nextRid if necessary so future inserts never collide (rids are
// never reused, but a rollback must not retroactively break that promise
// either).
func (t *Table) reinsert(rid int64, tuple []Value) {
	t.rows[rid] = tuple
	for _, ix := range t.indexes {
		col := t.schema.ColumnIndex(ix.Column)
		_ = ix.add(tuple[col], rid)
	}
	if rid >= t.nextRid {
		t.nextRid = rid + 1
	}
}

// forceDelete removes a row by rid unconditionally, for ROLLBACK of an
// INSERT. It does not consult referential integrity: rollback restores a
// prior, already-valid state.
func (t *Table) forceDelete(rid int64) {
	tuple, ok := t.rows[rid]
	if !ok {
		return
	}
	for _, ix := range t.indexes {
		col := t.schema.ColumnIndex(ix.Column)
		ix.remove(tuple[col], rid)
	}
	delete(t.rows, rid)
}

// forceSet overwrites a row's tuple by rid unconditionally, for ROLLBACK
// of an UPDATE.
func (t *Table) forceSet(rid int64, tuple []Value) {
	old, ok := t.rows[rid]
	if ok {
		for _, ix := range t.indexes {
			col := t.schema.ColumnIndex(ix.Column)
			if !old[col].Equal(tuple[col]) {
				ix.remove(old[col], rid)
				_ = ix.add(tuple[col], rid)
			}
		}
	}
	t.rows[rid] = tuple
}
