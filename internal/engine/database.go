package engine

import (
	"sync"

	"github.com/IanDublew/rdbms/internal/logging"
)

var log = logging.GetLogger("engine")

// childRef records that childTable.childColumn is a foreign key targeting
// this table's parentColumn, so deletes on the parent can be checked
// without re-walking every table's schema on every delete.
type childRef struct {
	childTable  string
	childColumn string
	parentCol   string
}

// Database is a mapping from table name to Table, plus the transaction
// manager every mutating operation participates in. Mutating paths (DDL,
// dispatched DML, Save) take the mutex; read paths do not. It is a
// single-call-at-a-time guard, not a concurrency feature: the engine is
// single-writer, and callers wanting concurrent access must serialize
// externally.
type Database struct {
	mu        sync.Mutex
	tables    map[string]*Table
	order     []string // table creation order, for stable ListTables/persistence
	childRefs map[string][]childRef
	txm       *TransactionManager
}

// NewDatabase returns an empty database, idle (no open transaction).
func NewDatabase() *Database {
	return &Database{
		tables:    make(map[string]*Table),
		childRefs: make(map[string][]childRef),
		txm:       newTransactionManager(),
	}
}

// CreateTable registers a new table. Duplicate names and foreign keys
// naming an unknown table/column fail with SchemaError.
func (db *Database) CreateTable(schema *TableSchema) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.tables[schema.Name]; exists {
		return &SchemaError{Msg: "table already exists: " + schema.Name}
	}
	seen := make(map[string]bool, len(schema.Columns))
	for _, c := range schema.Columns {
		if seen[c.Name] {
			return &SchemaError{Msg: "duplicate column " + c.Name + " in table " + schema.Name}
		}
		seen[c.Name] = true
		if c.ForeignKey != nil {
			target, ok := db.tables[c.ForeignKey.Table]
			if !ok {
				return &SchemaError{Msg: "foreign key references unknown table " + c.ForeignKey.Table}
			}
			tc, ok := target.schema.Column(c.ForeignKey.Column)
			if !ok || !tc.effectiveUnique() {
				return &SchemaError{Msg: "foreign key must reference a PRIMARY KEY or UNIQUE column"}
			}
		}
	}

	t := newTable(db, schema)
	db.tables[schema.Name] = t
	db.order = append(db.order, schema.Name)

	for _, c := range schema.Columns {
		if c.ForeignKey != nil {
			db.childRefs[c.ForeignKey.Table] = append(db.childRefs[c.ForeignKey.Table], childRef{
				childTable:  schema.Name,
				childColumn: c.Name,
				parentCol:   c.ForeignKey.Column,
			})
		}
	}

	log.LogOperation(logging.OpCreateTable, "table", schema.Name, "columns", len(schema.Columns))
	return nil
}

// DropTable destroys a table and its indexes. Dropping a table that other
// tables still reference via foreign key fails with
// ReferentialIntegrityError.
func (db *Database) DropTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.tables[name]; !ok {
		return &SchemaError{Msg: "unknown table " + name}
	}
	if refs := db.childRefs[name]; len(refs) > 0 {
		return &ReferentialIntegrityError{Msg: "table " + name + " is referenced by a foreign key in " + refs[0].childTable}
	}
	delete(db.tables, name)
	delete(db.childRefs, name)
	for parent, refs := range db.childRefs {
		kept := refs[:0]
		for _, r := range refs {
			if r.childTable != name {
				kept = append(kept, r)
			}
		}
		db.childRefs[parent] = kept
	}
	for i, n := range db.order {
		if n == name {
			db.order = append(db.order[:i], db.order[i+1:]...)
			break
		}
	}
	log.LogOperation(logging.OpDropTable, "table", name)
	return nil
}

// CreateIndex adds an explicit index on table(column).
func (db *Database) CreateIndex(name, table, column string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[table]
	if !ok {
		return &SchemaError{Msg: "unknown table " + table}
	}
	if err := t.CreateIndex(name, column); err != nil {
		return err
	}
	log.LogOperation(logging.OpCreateIndex, "table", table, "column", column, "index", name)
	return nil
}

// Table returns the named table, or (nil, false).
func (db *Database) Table(name string) (*Table, bool) {
	t, ok := db.tables[name]
	return t, ok
}

// ListTables returns table names in creation order.
func (db *Database) ListTables() []string {
	out := make([]string, len(db.order))
	copy(out, db.order)
	return out
}

// TableSchema returns the named table's schema.
func (db *Database) TableSchema(name string) (*TableSchema, bool) {
	t, ok := db.tables[name]
	if !ok {
		return nil, false
	}
	return t.schema, true
}

// Begin, Commit, and Rollback expose the transaction manager directly,
// for callers that drive transactions without going through Execute.
func (db *Database) Begin() error { return db.txm.Begin() }
func (db *Database) Commit()      { db.txm.Commit() }
func (db *Database) Rollback()    { db.txm.Rollback(db) }

// checkParentExists verifies fk.Column's target value is present in the
// target table's PK/UNIQUE index.
func (db *Database) checkParentExists(fk ForeignKeyRef, v Value) error {
	target, ok := db.tables[fk.Table]
	if !ok {
		return &ReferentialIntegrityError{Msg: "unknown parent table " + fk.Table}
	}
	ix, ok := target.indexes[fk.Column]
	if !ok {
		// A FK target column is always required to be PK/UNIQUE at
		// CreateTable time, so this indicates a schema invariant breach.
		return &ReferentialIntegrityError{Msg: "parent column is not indexed: " + fk.Table + "." + fk.Column}
	}
	if len(ix.lookupEq(v)) == 0 {
		return &ReferentialIntegrityError{Msg: "no matching row in " + fk.Table + "." + fk.Column + " for value " + v.String()}
	}
	return nil
}

// checkNoReferencingChildren verifies no other table's foreign key points
// at parentTuple's values, before a DELETE is allowed to proceed.
func (db *Database) checkNoReferencingChildren(parentTable string, parentTuple []Value, parentSchema *TableSchema) error {
	for _, ref := range db.childRefs[parentTable] {
		parentColIdx := parentSchema.ColumnIndex(ref.parentCol)
		if parentColIdx < 0 {
			continue
		}
		v := parentTuple[parentColIdx]
		if v.IsNull() {
			continue
		}
		child, ok := db.tables[ref.childTable]
		if !ok {
			continue
		}
		if referenced(child, ref.childColumn, v) {
			return &ReferentialIntegrityError{Msg: "row is referenced by " + ref.childTable + "." + ref.childColumn}
		}
	}
	return nil
}

// referenced scans (via index when present, else a full scan) for any row
// in child whose childColumn equals v.
func referenced(child *Table, column string, v Value) bool {
	if ix, ok := child.indexes[column]; ok {
		return len(ix.lookupEq(v)) > 0
	}
	col := child.schema.ColumnIndex(column)
	if col < 0 {
		return false
	}
	for _, tuple := range child.rows {
		if tuple[col].Equal(v) {
			return true
		}
	}
	return false
}
